package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fernet/fernet-go"
)

// Interface checks.
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// DecryptFile decrypts a single snapshot file and returns its contents as
// indented JSON. This is the debugging path behind the decrypt subcommand;
// it deliberately skips schema validation so malformed documents can still
// be inspected.
func DecryptFile(path, encodedKey string) ([]byte, error) {
	codec, err := newCodec(encodedKey)
	if err != nil {
		return nil, err
	}

	token, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	raw := fernet.VerifyAndDecrypt(token, 0, []*fernet.Key{codec.key})
	if raw == nil {
		return nil, ErrInvalidKey
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("decrypted data is not valid JSON: %w", err)
	}
	return pretty.Bytes(), nil
}
