package server

import (
	"strings"
	"sync"
	"testing"

	"github.com/pwoolcoc/wren/vm"
)

func TestVMWorker_Do(t *testing.T) {
	result, err := testWorker.Do(func(v *vm.VM) interface{} {
		return 7
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if result != 7 {
		t.Errorf("Do result = %v, want 7", result)
	}
}

func TestVMWorker_SerializesAccess(t *testing.T) {
	// The counter is unsynchronized on purpose. Every increment runs on
	// the worker goroutine, so the final count is exact.
	counter := 0

	var wg sync.WaitGroup
	const n = 50
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			testWorker.Do(func(v *vm.VM) interface{} {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	result, err := testWorker.Do(func(v *vm.VM) interface{} {
		return counter
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if result != n {
		t.Errorf("counter = %v, want %d", result, n)
	}
}

func TestVMWorker_PanicRecovery(t *testing.T) {
	_, err := testWorker.Do(func(v *vm.VM) interface{} {
		panic("kaboom")
	})
	if err == nil {
		t.Fatal("Do should surface the panic as an error")
	}
	if !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("panic error = %q, want it to mention kaboom", err)
	}

	// The worker goroutine must survive the panic.
	result, err := testWorker.Do(func(v *vm.VM) interface{} {
		return "alive"
	})
	if err != nil {
		t.Fatalf("Do after panic returned error: %v", err)
	}
	if result != "alive" {
		t.Errorf("Do after panic = %v, want %q", result, "alive")
	}
}

func TestVMWorker_Stop(t *testing.T) {
	w := NewVMWorker(testVM)
	if _, err := w.Do(func(v *vm.VM) interface{} { return nil }); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	w.Stop()
}
