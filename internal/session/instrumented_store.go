package session

import "context"

// OpRecorder はセッションストア操作を記録するインターフェース。
type OpRecorder interface {
	RecordSessionOp(op string)
}

// InstrumentedStore はStoreをラップし、各操作をメトリクスとして記録する。
// 記録はベストエフォートで、ラップ対象の挙動は変えない。
type InstrumentedStore struct {
	inner    Store
	recorder OpRecorder
}

// NewInstrumentedStore はInstrumentedStoreを生成する。
func NewInstrumentedStore(inner Store, recorder OpRecorder) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, recorder: recorder}
}

func (i *InstrumentedStore) Load(ctx context.Context, id string) (*Session, error) {
	i.recorder.RecordSessionOp("load")
	return i.inner.Load(ctx, id)
}

func (i *InstrumentedStore) Save(ctx context.Context, s *Session) (string, error) {
	i.recorder.RecordSessionOp("save")
	return i.inner.Save(ctx, s)
}

func (i *InstrumentedStore) Destroy(ctx context.Context, id string) error {
	i.recorder.RecordSessionOp("destroy")
	return i.inner.Destroy(ctx, id)
}

func (i *InstrumentedStore) Clear(ctx context.Context) error {
	i.recorder.RecordSessionOp("clear")
	return i.inner.Clear(ctx)
}

var _ Store = (*InstrumentedStore)(nil)
