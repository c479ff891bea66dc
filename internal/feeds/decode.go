// Package feeds decodes already-fetched storefront and ad-platform JSON
// documents into the typed records the engine consumes.
package feeds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/campaign-attribution/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// flexString accepts JSON strings, numbers and null. Both platforms send
// money and counters as strings.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// Decimal parses the value; empty means zero.
func (f flexString) Decimal() (decimal.Decimal, error) {
	if f == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(string(f))
}

// DecimalOrZero treats unparseable values as zero.
func (f flexString) DecimalOrZero() decimal.Decimal {
	d, err := f.Decimal()
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Int64OrZero treats empty and unparseable values as zero.
func (f flexString) Int64OrZero() int64 {
	if f == "" {
		return 0
	}
	if n, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return n
	}
	if d, err := decimal.NewFromString(string(f)); err == nil {
		return d.IntPart()
	}
	return 0
}

// decodeList reads either a bare JSON array or an object holding the array under key.
func decodeList(r io.Reader, key string) ([]json.RawMessage, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read feed")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var list []json.RawMessage
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode feed array")
		}
		return list, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode feed envelope")
	}
	body, ok := envelope[key]
	if !ok || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, nil
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("decode %q", key))
	}
	return list, nil
}

// recordErrors collects per-record failures so a single bad record does not drop the feed.
type recordErrors struct {
	feed string
	errs error
	n    int
}

func (r *recordErrors) add(index int, err error) {
	if err == nil {
		return
	}
	r.n++
	r.errs = multierr.Append(r.errs, fmt.Errorf("%s[%d]: %w", r.feed, index, err))
}

// err returns nil or a validation error wrapping every record failure.
func (r *recordErrors) err() error {
	if r.errs == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, r.errs, fmt.Sprintf("%d invalid %s records", r.n, r.feed)).
		WithDetails(map[string]any{"feed": r.feed, "invalid": r.n})
}

// RecordErrors unpacks the individual record failures of a decode error.
func RecordErrors(err error) []error {
	if typed := pkgerrors.As(err); typed != nil && typed.Unwrap() != nil {
		return multierr.Errors(typed.Unwrap())
	}
	return multierr.Errors(err)
}

// Partial reports whether err only lists skipped records, in which case the
// records returned alongside it are usable.
func Partial(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return false
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return false
	}
	_, invalid := details["invalid"]
	return invalid
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t, nil
}

func parseDay(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return &t, nil
}
