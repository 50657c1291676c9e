// Package mocks provides test doubles for ports interfaces.
//
// The mocks are thread-safe in-memory implementations suitable for unit
// tests. Each mock provides:
//
//   - Default behavior backed by in-memory state
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Clear methods for test isolation
//
// # Usage Example
//
//	func TestHandler(t *testing.T) {
//		store := mocks.NewStore()
//		_ = store.AppendCriterion(ctx, 1, "golang")
//
//		h := NewHandler(store)
//		// ... test handler behavior
//	}
//
// # Available Mocks
//
//   - Store: implements ports.Store
package mocks
