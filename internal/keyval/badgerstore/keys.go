package badgerstore

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// The partition key is base64-encoded so the "|" separator splits
// reliably when decoding, and so a partition prefix can never match
// part of another partition's key.
func encodeKey(partition, sort string) []byte {
	return []byte(base64.StdEncoding.EncodeToString([]byte(partition)) + "|" + sort)
}

func partitionPrefix(partition string) []byte {
	return []byte(base64.StdEncoding.EncodeToString([]byte(partition)) + "|")
}

func decodeKey(encoded []byte) (string, string, error) {
	parts := strings.SplitN(string(encoded), "|", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid key format")
	}
	pk, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", err
	}
	return string(pk), parts[1], nil
}
