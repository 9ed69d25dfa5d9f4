package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateFormat = "2006-01-02"

// EncodeSnapshotToken creates a base64 encoded token pinning an ingest
// sequence, a cache version and the day statuses were derived for. Later pages
// pass it back so they see exactly the data the first page saw.
func EncodeSnapshotToken(seq, version int64, asOf time.Time) string {
	return EncodeMultiFieldToken(
		strconv.FormatInt(seq, 10),
		strconv.FormatInt(version, 10),
		asOf.UTC().Format(dateFormat),
	)
}

// DecodeSnapshotToken parses a token produced by EncodeSnapshotToken.
func DecodeSnapshotToken(token string) (seq, version int64, asOf time.Time, err error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return 0, 0, time.Time{}, err
	}
	if len(parts) != 3 {
		return 0, 0, time.Time{}, fmt.Errorf("invalid pagination token format (split)")
	}

	seq, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil || seq < 0 {
		return 0, 0, time.Time{}, fmt.Errorf("invalid pagination token format (sequence parse)")
	}

	version, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil || version < 0 {
		return 0, 0, time.Time{}, fmt.Errorf("invalid pagination token format (version parse)")
	}

	asOf, err = time.Parse(dateFormat, parts[2])
	if err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("invalid pagination token format (date parse): %w", err)
	}

	return seq, version, asOf, nil
}

// EncodeMultiFieldToken creates a token with any number of string fields
// This provides flexibility for different pagination strategies
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	tokenStr := string(decodedBytes)
	parts := strings.Split(tokenStr, "|")
	return parts, nil
}
