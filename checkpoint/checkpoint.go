package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/hupe1980/streamcluster"
	"github.com/hupe1980/streamcluster/blobstore"
	"github.com/hupe1980/streamcluster/codec"
	"golang.org/x/sync/errgroup"
)

const (
	// CurrentName is the name of the pointer blob inside a prefix.
	CurrentName = "CURRENT"

	// Ext is the file extension of checkpoint blobs.
	Ext = ".ckpt"

	defaultPruneConcurrency = 8
)

// ErrNoCheckpoint is returned by LoadLatest when the prefix holds no
// checkpoint.
var ErrNoCheckpoint = errors.New("no checkpoint")

type options struct {
	codec            codec.Codec
	compression      Compression
	logger           *streamcluster.Logger
	pruneConcurrency int
}

// Option configures a Writer.
type Option func(*options)

// WithCodec sets the payload codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression sets the payload compression. Defaults to CompressionNone.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithLogger configures structured logging of checkpoint operations.
func WithLogger(l *streamcluster.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPruneConcurrency bounds the number of concurrent deletes in Prune.
func WithPruneConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pruneConcurrency = n
		}
	}
}

// Writer saves and loads checkpoints of one run under a common prefix.
// It is safe for concurrent use if the underlying store is.
type Writer[T any] struct {
	store  blobstore.Store
	prefix string
	opts   options
}

// NewWriter creates a Writer for the checkpoints under prefix.
func NewWriter[T any](store blobstore.Store, prefix string, optFns ...Option) *Writer[T] {
	opts := options{
		codec:            codec.Default,
		compression:      CompressionNone,
		logger:           streamcluster.NoopLogger(),
		pruneConcurrency: defaultPruneConcurrency,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.logger = opts.logger.WithComponent("checkpoint")

	return &Writer[T]{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		opts:   opts,
	}
}

func (w *Writer[T]) name(base string) string {
	if w.prefix == "" {
		return base
	}
	return w.prefix + "/" + base
}

// Name returns the blob name a snapshot taken after added items is stored
// under.
func (w *Writer[T]) Name(added uint64) string {
	return w.name(fmt.Sprintf("%020d%s", added, Ext))
}

// Save validates and writes st, then advances CURRENT to it.
func (w *Writer[T]) Save(ctx context.Context, st streamcluster.State[T]) (string, error) {
	name := w.Name(st.Added)
	size, err := w.save(ctx, name, st)
	w.opts.logger.LogCheckpoint(ctx, "saved", name, size, err)
	if err != nil {
		return "", err
	}
	return name, nil
}

func (w *Writer[T]) save(ctx context.Context, name string, st streamcluster.State[T]) (int, error) {
	if err := st.Validate(); err != nil {
		return 0, err
	}
	data, err := Encode(st, w.opts.codec, w.opts.compression)
	if err != nil {
		return 0, err
	}
	if err := w.store.Put(ctx, name, data); err != nil {
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.store.Put(ctx, w.name(CurrentName), []byte(name)); err != nil {
		return 0, fmt.Errorf("update %s: %w", CurrentName, err)
	}
	return len(data), nil
}

// Load reads the checkpoint stored under name.
func (w *Writer[T]) Load(ctx context.Context, name string) (streamcluster.State[T], error) {
	var st streamcluster.State[T]

	data, err := w.store.Get(ctx, name)
	if err != nil {
		w.opts.logger.LogCheckpoint(ctx, "loaded", name, 0, err)
		return st, err
	}
	if _, err := Decode(data, &st); err != nil {
		w.opts.logger.LogCheckpoint(ctx, "loaded", name, len(data), err)
		return st, fmt.Errorf("%s: %w", name, err)
	}
	if err := st.Validate(); err != nil {
		w.opts.logger.LogCheckpoint(ctx, "loaded", name, len(data), err)
		return st, fmt.Errorf("%s: %w", name, err)
	}

	w.opts.logger.LogCheckpoint(ctx, "loaded", name, len(data), nil)
	return st, nil
}

// Latest returns the name of the newest checkpoint. CURRENT is preferred;
// without it the highest listed checkpoint is used.
func (w *Writer[T]) Latest(ctx context.Context) (string, error) {
	current, err := w.store.Get(ctx, w.name(CurrentName))
	switch {
	case err == nil:
		return string(current), nil
	case !errors.Is(err, blobstore.ErrNotFound):
		return "", err
	}

	names, err := w.List(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", ErrNoCheckpoint
	}
	return names[len(names)-1], nil
}

// LoadLatest reads the newest checkpoint.
func (w *Writer[T]) LoadLatest(ctx context.Context) (streamcluster.State[T], error) {
	name, err := w.Latest(ctx)
	if err != nil {
		return streamcluster.State[T]{}, err
	}
	return w.Load(ctx, name)
}

// List returns the names of all checkpoints under the prefix, oldest first.
func (w *Writer[T]) List(ctx context.Context) ([]string, error) {
	listPrefix := ""
	if w.prefix != "" {
		listPrefix = w.prefix + "/"
	}

	all, err := w.store.List(ctx, listPrefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(all))
	for _, name := range all {
		// Nested prefixes belong to other runs.
		if path.Dir(name) != path.Dir(w.name(CurrentName)) || !strings.HasSuffix(name, Ext) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Prune deletes all but the newest keep checkpoints and returns how many
// were deleted. The checkpoint CURRENT points to is always kept.
func (w *Writer[T]) Prune(ctx context.Context, keep int) (int, error) {
	names, err := w.List(ctx)
	if err != nil {
		return 0, err
	}
	if keep < 1 {
		keep = 1
	}
	if len(names) <= keep {
		return 0, nil
	}

	current, err := w.Latest(ctx)
	if err != nil {
		return 0, err
	}

	victims := make([]string, 0, len(names)-keep)
	for _, name := range names[:len(names)-keep] {
		if name != current {
			victims = append(victims, name)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.pruneConcurrency)
	for _, name := range victims {
		g.Go(func() error {
			if err := w.store.Delete(gctx, name); err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(victims), nil
}
