package eventpublisher

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	ceevent "github.com/cloudevents/sdk-go/v2/event"

	"github.com/fr0stylo/storefront/internal/app/ports"
)

const typePrefix = "io.storefront."

// TypeFor maps a stored event type such as "listing.available" to its
// CloudEvents type. Undotted names are converted to snake case.
func TypeFor(eventType string) string {
	eventType = strings.TrimSpace(eventType)
	if !strings.Contains(eventType, ".") {
		eventType = snakeCase(eventType)
	}
	return typePrefix + eventType + ".v1"
}

// BuildEvent wraps one outbox row in a CloudEvent. The row's payload becomes
// the JSON data; its sequence number travels in the "sequence" extension.
func BuildEvent(record ports.EventRecord, source string) (ceevent.Event, error) {
	if strings.TrimSpace(record.EventID) == "" {
		return ceevent.Event{}, fmt.Errorf("event %d has no id", record.Seq)
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = DefaultSource
	}

	event := ceevent.New()
	event.SetID(record.EventID)
	event.SetSource(source)
	event.SetType(TypeFor(record.EventType))
	event.SetTime(record.OccurredAt.UTC())
	subject := "storefronts/" + record.StorefrontID
	if record.ListingID != nil {
		subject += "/listings/" + strconv.FormatUint(*record.ListingID, 10)
	}
	event.SetSubject(subject)
	event.SetExtension("sequence", strconv.FormatInt(record.Seq, 10))
	event.SetExtension("storefrontid", record.StorefrontID)

	payload := strings.TrimSpace(record.PayloadJSON)
	if payload == "" {
		payload = "{}"
	}
	if !json.Valid([]byte(payload)) {
		return ceevent.Event{}, fmt.Errorf("event %s payload is not valid JSON", record.EventID)
	}
	if err := event.SetData(ceevent.ApplicationJSON, []byte(payload)); err != nil {
		return ceevent.Event{}, fmt.Errorf("set event %s data: %w", record.EventID, err)
	}
	if err := event.Validate(); err != nil {
		return ceevent.Event{}, fmt.Errorf("invalid event %s: %w", record.EventID, err)
	}
	return event, nil
}

// BuildBatchBody encodes records as a structured CloudEvents batch in order.
func BuildBatchBody(records []ports.EventRecord, source string) ([]byte, error) {
	batch := make([]ceevent.Event, 0, len(records))
	for _, record := range records {
		event, err := BuildEvent(record, source)
		if err != nil {
			return nil, err
		}
		batch = append(batch, event)
	}
	return json.Marshal(batch)
}

func snakeCase(value string) string {
	var b strings.Builder
	for i, r := range value {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
