package testsupport

import (
	"context"
	"crypto/sha256"
	"fmt"
	"hash"
	"os"
	"path/filepath"
)

// StubEncoder stands in for the external encoder in tests. Encode writes
// output bytes derived from the input file contents and the settings flags,
// exactly like a bit-exact encoder: where the inputs live on disk and where
// the output goes never change the produced bytes.
type StubEncoder struct {
	Calls [][]string
	// EncodeErr, when set, is returned from every Encode call.
	EncodeErr error
}

func (s *StubEncoder) Encode(_ context.Context, args []string) error {
	s.Calls = append(s.Calls, append([]string(nil), args...))
	if s.EncodeErr != nil {
		return s.EncodeErr
	}
	outputPath := args[len(args)-1]
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	h := sha256.New()
	// Skip the output path; fold input files in by content, everything else
	// by token.
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-i" && i+1 < len(args)-1 {
			if err := hashFileInto(h, args[i+1]); err != nil {
				return err
			}
			i++
			continue
		}
		h.Write([]byte(args[i]))
		h.Write([]byte{0})
	}
	return os.WriteFile(outputPath, h.Sum(nil), 0o644)
}

func hashFileInto(h hash.Hash, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	h.Write(data)
	h.Write([]byte{0})
	return nil
}

func (s *StubEncoder) Version(context.Context) (string, error) {
	return "6.1.1", nil
}

// FrameHashes derives one fake hash line per "frame" from the file bytes.
func (s *StubEncoder) FrameHashes(_ context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	hashes := make([]string, 4)
	for i := range hashes {
		hashes[i] = fmt.Sprintf("0, %d, %d, 1, 16, %x", i, i, sum[i*4:i*4+4])
	}
	return hashes, nil
}
