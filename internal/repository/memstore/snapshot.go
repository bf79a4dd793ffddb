package memstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/oggyb/callfirst/internal/db"
)

// state is everything the store holds. It is also the snapshot file layout.
type state struct {
	Profiles    map[string]db.UserProfile `cbor:"profiles"`
	Credentials map[string]db.Credential  `cbor:"credentials"`
	Swipes      []db.Swipe                `cbor:"swipes"`
	Matches     map[string]db.Match       `cbor:"matches"`
	Threads     map[string]db.CallThread  `cbor:"threads"`
	Proposals   []db.CallProposal         `cbor:"proposals"`
	Events      map[string]db.CallEvent   `cbor:"events"`
	Feedback    []db.Feedback             `cbor:"feedback"`
	Blocks      []db.Block                `cbor:"blocks"`
	Reports     []db.Report               `cbor:"reports"`
}

func newState() *state {
	return &state{
		Profiles:    map[string]db.UserProfile{},
		Credentials: map[string]db.Credential{},
		Matches:     map[string]db.Match{},
		Threads:     map[string]db.CallThread{},
		Events:      map[string]db.CallEvent{},
	}
}

// fill replaces nil maps after decoding a snapshot that lacked them.
func (s *state) fill() {
	if s.Profiles == nil {
		s.Profiles = map[string]db.UserProfile{}
	}
	if s.Credentials == nil {
		s.Credentials = map[string]db.Credential{}
	}
	if s.Matches == nil {
		s.Matches = map[string]db.Match{}
	}
	if s.Threads == nil {
		s.Threads = map[string]db.CallThread{}
	}
	if s.Events == nil {
		s.Events = map[string]db.CallEvent{}
	}
}

// snapshotEncMode writes deterministic CBOR (sorted map keys) with
// timestamps as RFC 3339 strings, so equal states give equal files.
var snapshotEncMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Snapshots are zstd-compressed CBOR. The coders are safe for concurrent use
// and reused across writes.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("memstore: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("memstore: zstd decoder initialization failed: " + err.Error())
	}
}

func encodeState(st *state) ([]byte, error) {
	raw, err := snapshotEncMode.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return zstdEncoder.EncodeAll(raw, nil), nil
}

func decodeState(b []byte) (*state, error) {
	st := newState()
	if len(b) == 0 {
		return st, nil
	}
	raw, err := zstdDecoder.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	if err := cbor.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	st.fill()
	return st, nil
}

// readSnapshot returns the file contents, or nil when the file does not exist
// yet.
func readSnapshot(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return b, nil
}

// writeSnapshot replaces path atomically: write a temp file in the same
// directory, then rename it over the old one.
func writeSnapshot(path string, b []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
