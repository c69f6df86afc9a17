// Package snapshot implements the on-disk persistence format for a memo
// database: an explicit, tagged, length-prefixed framing around gob-encoded
// sections, one per backend table, written and loaded atomically.
//
// The framing is hand-written rather than a single top-level gob.Encode of
// the whole state on purpose: gob already does the reflective work of
// encoding each table's concrete types, but wrapping that per-section output
// in an explicit tag+length envelope (the way rclone's hasher backend frames
// each record it puts into its kv store) keeps a corrupt or truncated
// section from silently decoding into the wrong table, and lets a future
// version add a new table without breaking readers that don't know about it.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"os"

	"github.com/fbuild-go/memo/digest"
	"github.com/fbuild-go/memo/internal/callfiles"
	"github.com/fbuild-go/memo/internal/calltab"
	"github.com/fbuild-go/memo/internal/extdeps"
	"github.com/fbuild-go/memo/internal/filereg"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

const (
	magic    = "MEMO"
	formatV1 = 1
	// flagCompress lives in the header byte's upper nibble so it can never
	// collide with a future format version in the lower nibble.
	flagCompress = 1 << 4
)

type tag byte

const (
	tagEnd tag = iota
	tagFiles
	tagFunctions
	tagCalls
	tagCallFiles
	tagExternalDeps
)

// State is the full persisted content of a database: one section per
// backend table.
type State struct {
	Files        map[string]filereg.Record
	Functions    map[string]digest.Digest
	Calls        map[string][]calltab.Record
	CallFiles    []callfiles.Record
	ExternalDeps []extdeps.Record
}

// ErrBadMagic is returned by Load when path does not start with the
// expected snapshot header.
var ErrBadMagic = errors.New("snapshot: not a memo database file")

// Save atomically writes state to path: the new content is written to
// path+".tmp", any existing path is renamed to path+".old", the tmp file is
// renamed into place, and the old file is removed only once the rename has
// succeeded.
func Save(path string, state State, compress bool) error {
	tmp := path + ".tmp"
	old := path + ".old"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "snapshot: create temp file")
	}
	if err := encode(f, state, compress); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "snapshot: sync temp file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "snapshot: close temp file")
	}

	hadOld := false
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, old); err != nil {
			return errors.Wrap(err, "snapshot: rotate previous database")
		}
		hadOld = true
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, "snapshot: stat existing database")
	}

	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "snapshot: install new database")
	}
	if hadOld {
		if err := os.Remove(old); err != nil {
			return errors.Wrap(err, "snapshot: remove rotated database")
		}
	}
	return nil
}

// Load reads a database previously written by Save. A missing file is
// reported via os.IsNotExist on the returned error, letting callers treat it
// as "no database yet" rather than a corruption.
func Load(path string) (State, error) {
	f, err := os.Open(path)
	if err != nil {
		return State{}, err
	}
	defer f.Close()
	return decode(bufio.NewReader(f))
}

func encode(w io.Writer, state State, compress bool) error {
	header := [5]byte{}
	copy(header[:4], magic)
	header[4] = formatV1
	if compress {
		header[4] |= flagCompress
	}
	if _, err := w.Write(header[:]); err != nil {
		return errors.Wrap(err, "snapshot: write header")
	}

	body := io.Writer(w)
	var zw *zstd.Encoder
	if compress {
		var err error
		zw, err = zstd.NewWriter(w)
		if err != nil {
			return errors.Wrap(err, "snapshot: start compressor")
		}
		body = zw
	}

	if err := writeSection(body, tagFiles, state.Files); err != nil {
		return err
	}
	if err := writeSection(body, tagFunctions, state.Functions); err != nil {
		return err
	}
	if err := writeSection(body, tagCalls, state.Calls); err != nil {
		return err
	}
	if err := writeSection(body, tagCallFiles, state.CallFiles); err != nil {
		return err
	}
	if err := writeSection(body, tagExternalDeps, state.ExternalDeps); err != nil {
		return err
	}
	if _, err := body.Write([]byte{byte(tagEnd)}); err != nil {
		return errors.Wrap(err, "snapshot: write trailer")
	}
	if zw != nil {
		return zw.Close()
	}
	return nil
}

func writeSection(w io.Writer, t tag, v interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return errors.Wrapf(err, "snapshot: encode section %d", t)
	}
	if _, err := w.Write([]byte{byte(t)}); err != nil {
		return errors.Wrap(err, "snapshot: write section tag")
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(buf.Len()))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errors.Wrap(err, "snapshot: write section length")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrapf(err, "snapshot: write section %d", t)
	}
	return nil
}

func decode(r io.Reader) (State, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return State{}, errors.Wrap(err, "snapshot: read header")
	}
	if string(header[:4]) != magic {
		return State{}, ErrBadMagic
	}
	compress := header[4]&flagCompress != 0

	var body io.Reader = r
	if compress {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return State{}, errors.Wrap(err, "snapshot: start decompressor")
		}
		defer zr.Close()
		body = zr
	}

	var state State
	for {
		var tagByte [1]byte
		if _, err := io.ReadFull(body, tagByte[:]); err != nil {
			return State{}, errors.Wrap(err, "snapshot: read section tag")
		}
		t := tag(tagByte[0])
		if t == tagEnd {
			return state, nil
		}

		var lenBuf [4]byte
		if _, err := io.ReadFull(body, lenBuf[:]); err != nil {
			return State{}, errors.Wrap(err, "snapshot: read section length")
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		section := make([]byte, n)
		if _, err := io.ReadFull(body, section); err != nil {
			return State{}, errors.Wrapf(err, "snapshot: read section %d", t)
		}

		dec := gob.NewDecoder(bytes.NewReader(section))
		var err error
		switch t {
		case tagFiles:
			err = dec.Decode(&state.Files)
		case tagFunctions:
			err = dec.Decode(&state.Functions)
		case tagCalls:
			err = dec.Decode(&state.Calls)
		case tagCallFiles:
			err = dec.Decode(&state.CallFiles)
		case tagExternalDeps:
			err = dec.Decode(&state.ExternalDeps)
		default:
			// Unknown section from a newer format: skip it rather than fail,
			// so old readers stay forward compatible.
			continue
		}
		if err != nil {
			return State{}, errors.Wrapf(err, "snapshot: decode section %d", t)
		}
	}
}
