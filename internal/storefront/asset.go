package storefront

import "fmt"

// Asset is a uniquely owned asset value. It can be moved between holders but
// never copied: Move hands ownership to a new handle and invalidates the old one.
type Asset struct {
	assetType string
	id        uint64
	moved     bool
}

// NewAsset mints an asset handle. Only custody implementations should call it.
func NewAsset(assetType string, id uint64) *Asset {
	return &Asset{assetType: assetType, id: id}
}

// Type returns the asset type identifier.
func (a *Asset) Type() string { return a.assetType }

// ID returns the asset identifier within its type.
func (a *Asset) ID() uint64 { return a.id }

// Live reports whether this handle still owns the asset.
func (a *Asset) Live() bool { return a != nil && !a.moved }

// Move transfers ownership to a fresh handle.
func (a *Asset) Move() (*Asset, error) {
	if !a.Live() {
		return nil, ErrMoved
	}
	a.moved = true
	return &Asset{assetType: a.assetType, id: a.id}, nil
}

func (a *Asset) String() string {
	if a == nil {
		return "<nil asset>"
	}
	return fmt.Sprintf("%s#%d", a.assetType, a.id)
}
