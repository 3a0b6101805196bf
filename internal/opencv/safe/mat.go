package safe

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Mat owns a gocv.Mat and guards it against use after Close.
type Mat struct {
	mat     gocv.Mat
	isValid int32
	mu      sync.RWMutex
	id      uint64
	tag     string
}

var nextMatID uint64

// NewMat allocates a zero-filled Mat.
func NewMat(rows, cols int, matType gocv.MatType, tag string) (*Mat, error) {
	if err := ValidateDimensions(cols, rows, tag); err != nil {
		return nil, err
	}

	mat := gocv.Zeros(rows, cols, matType)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to create Mat with size %dx%d", cols, rows)
	}

	return wrap(mat, tag), nil
}

// Own takes ownership of mat; the caller must not close it afterwards.
func Own(mat gocv.Mat, tag string) (*Mat, error) {
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%s: source Mat is empty", tag)
	}
	return wrap(mat, tag), nil
}

func wrap(mat gocv.Mat, tag string) *Mat {
	safeMat := &Mat{
		mat:     mat,
		isValid: 1,
		id:      atomic.AddUint64(&nextMatID, 1),
		tag:     tag,
	}

	// Set finalizer for cleanup if Close() is not called
	runtime.SetFinalizer(safeMat, (*Mat).finalize)

	return safeMat
}

func (sm *Mat) IsValid() bool {
	return sm != nil && atomic.LoadInt32(&sm.isValid) == 1
}

func (sm *Mat) Empty() bool {
	if !sm.IsValid() {
		return true
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Empty()
}

func (sm *Mat) Rows() int {
	if !sm.IsValid() {
		return 0
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Rows()
}

func (sm *Mat) Cols() int {
	if !sm.IsValid() {
		return 0
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Cols()
}

func (sm *Mat) Type() gocv.MatType {
	if !sm.IsValid() {
		return gocv.MatTypeCV8UC1
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Type()
}

func (sm *Mat) Tag() string {
	return sm.tag
}

func (sm *Mat) ID() uint64 {
	return sm.id
}

func (sm *Mat) Clone() (*Mat, error) {
	if !sm.IsValid() {
		return nil, fmt.Errorf("cannot clone invalid Mat")
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.mat.Empty() {
		return nil, fmt.Errorf("cannot clone empty Mat")
	}

	return wrap(sm.mat.Clone(), sm.tag+"_clone"), nil
}

// GetMat exposes the underlying Mat for gocv calls. It stays owned by sm.
func (sm *Mat) GetMat() gocv.Mat {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat
}

func (sm *Mat) GetUCharAt(row, col int) (uint8, error) {
	if !sm.IsValid() {
		return 0, fmt.Errorf("Mat is invalid")
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if err := ValidateCoordinates(row, col, sm.mat.Rows(), sm.mat.Cols(), "GetUCharAt"); err != nil {
		return 0, err
	}

	return sm.mat.GetUCharAt(row, col), nil
}

func (sm *Mat) SetUCharAt(row, col int, value uint8) error {
	if !sm.IsValid() {
		return fmt.Errorf("Mat is invalid")
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if err := ValidateCoordinates(row, col, sm.mat.Rows(), sm.mat.Cols(), "SetUCharAt"); err != nil {
		return err
	}

	sm.mat.SetUCharAt(row, col, value)
	return nil
}

// CountNonZero counts foreground pixels of a single-channel Mat.
func (sm *Mat) CountNonZero() int {
	if sm.Empty() {
		return 0
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return gocv.CountNonZero(sm.mat)
}

func (sm *Mat) Close() {
	if sm == nil {
		return
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if atomic.CompareAndSwapInt32(&sm.isValid, 1, 0) {
		sm.mat.Close()

		// Clear finalizer since we're cleaning up manually
		runtime.SetFinalizer(sm, nil)
	}
}

// finalize is called by Go's garbage collector as last resort cleanup
func (sm *Mat) finalize() {
	if atomic.LoadInt32(&sm.isValid) == 1 {
		sm.Close()
	}
}
