// Package asset loads the binary assets the renderer consumes.
package asset

import (
	"context"
	"io/fs"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/log"
	"golang.org/x/sync/errgroup"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203

// ShaderLibrary reads SPIR-V binaries from a file system and caches the
// decoded words by path. It is safe for concurrent use.
type ShaderLibrary struct {
	fsys   fs.FS
	logger log.Logger

	mu    sync.Mutex
	cache map[string][]uint32
}

// NewShaderLibrary returns a library reading from fsys.
func NewShaderLibrary(fsys fs.FS, logger log.Logger) *ShaderLibrary {
	if logger == nil {
		logger = log.New("asset")
	}
	return &ShaderLibrary{fsys: fsys, logger: logger, cache: map[string][]uint32{}}
}

// Shader returns the SPIR-V words stored at path.
func (l *ShaderLibrary) Shader(path string) ([]uint32, error) {
	l.mu.Lock()
	code, ok := l.cache[path]
	l.mu.Unlock()
	if ok {
		return code, nil
	}

	b, err := fs.ReadFile(l.fsys, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	code, err = bytesToBytecode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "decode shader %s", path)
	}

	l.mu.Lock()
	l.cache[path] = code
	l.mu.Unlock()
	l.logger.Debugf("loaded shader %s (%d words)", path, len(code))
	return code, nil
}

// Preload reads every path concurrently and returns the first failure.
func (l *ShaderLibrary) Preload(ctx context.Context, paths ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := l.Shader(path)
			return err
		})
	}
	return g.Wait()
}

// Cached reports how many shaders are held in memory.
func (l *ShaderLibrary) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Errorf("invalid SPIR-V size %d", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}
	if byteCode[0] != SPIRVMagic {
		return nil, errors.Errorf("bad SPIR-V magic %#08x", byteCode[0])
	}
	return byteCode, nil
}
