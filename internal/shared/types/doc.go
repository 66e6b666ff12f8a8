// Package types provides shared data structures for the organizer backend.
//
// This package defines core types used across all components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Service: Service provider definition
//   - Tool: Service tool specification
//   - Parameter: Tool parameter specification
//   - Context: Execution context for operations
//   - Result: Standard operation result
//
// Example Usage:
//
//	result := &types.Result{
//	    Success: true,
//	    Data:    map[string]interface{}{"moved": 12},
//	}
package types
