package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countTask struct {
	counter *int32
}

func (t *countTask) Execute() {
	atomic.AddInt32(t.counter, 1)
}

type panicTask struct{}

func (t *panicTask) Execute() {
	panic("intentional panic for testing")
}

// TestPanicRecovery 测试 panic 不会杀死 worker
func TestPanicRecovery(t *testing.T) {
	pool := NewWorkerPool(2, 10)
	pool.Start()
	defer pool.Stop()

	var completed int32

	pool.Submit(&panicTask{})
	pool.Submit(&panicTask{})
	pool.Submit(&countTask{counter: &completed})
	pool.Submit(&countTask{counter: &completed})
	pool.Submit(&countTask{counter: &completed})

	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, int32(3), atomic.LoadInt32(&completed))
}

// TestConcurrentSubmit 测试并发提交
func TestConcurrentSubmit(t *testing.T) {
	pool := NewWorkerPool(4, 2000)
	pool.Start()
	defer pool.Stop()

	const numGoroutines = 50
	const tasksPerGoroutine = 20

	var completed int32
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < tasksPerGoroutine; j++ {
				pool.Submit(&countTask{counter: &completed})
			}
		}()
	}

	wg.Wait()
	time.Sleep(500 * time.Millisecond)

	assert.Equal(t, int32(numGoroutines*tasksPerGoroutine), atomic.LoadInt32(&completed))
}

// TestRunWait 测试同步执行
func TestRunWait(t *testing.T) {
	pool := NewWorkerPool(2, 10)
	pool.Start()
	defer pool.Stop()

	var done int32
	err := pool.RunWait(context.Background(), func() {
		atomic.AddInt32(&done, 1)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&done))
}

// TestRunWaitContextCancel 测试取消等待
func TestRunWaitContextCancel(t *testing.T) {
	pool := NewWorkerPool(1, 10)
	pool.Start()
	defer pool.Stop()

	blocker := make(chan struct{})
	pool.Submit(&blockTask{ch: blocker})
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := pool.RunWait(ctx, func() {})
	assert.Error(t, err)
	close(blocker)
}

type blockTask struct {
	ch chan struct{}
}

func (t *blockTask) Execute() {
	<-t.ch
}

// TestDoubleStop 测试重复停止不 panic
func TestDoubleStop(t *testing.T) {
	pool := NewWorkerPool(2, 10)
	pool.Start()
	pool.Stop()
	pool.Stop()
}

// TestSubmitNilTask 测试 nil 任务不 panic
func TestSubmitNilTask(t *testing.T) {
	pool := NewWorkerPool(2, 10)
	pool.Start()
	defer pool.Stop()

	ok := pool.Submit(nil)
	require.True(t, ok)
	time.Sleep(100 * time.Millisecond)
}
