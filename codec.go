package memo

import (
	"bytes"
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

// gobEncode serializes v the way rclone's hasher backend serializes each
// record it puts into its kv store: a plain gob.Encoder over a buffer, with
// no attempt to make the wire format self-describing beyond what gob
// already provides. The outer framing that needs to be robust to partial
// writes and format evolution lives in internal/snapshot, one layer up;
// these bytes are just an opaque payload to that layer.
func gobEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, errors.Wrap(err, "memo: encode value")
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return errors.Wrap(err, "memo: decode value")
	}
	return nil
}

// anyMissing reports the first path, across every slice in groups, that
// does not currently exist on disk. A call judged clean still needs this
// check: its cached record proves the call's inputs haven't changed, not
// that nothing has deleted its outputs since.
func anyMissing(groups ...[]string) (string, bool) {
	for _, paths := range groups {
		for _, p := range paths {
			if _, err := os.Stat(p); err != nil {
				return p, true
			}
		}
	}
	return "", false
}
