package status

import "fmt"

// Kind groups categories into the three disjoint error families.
type Kind uint8

const (
	// KindSDK marks codes produced inside the client.
	KindSDK Kind = iota + 1
	// KindRPC marks codes produced by mapping transport status.
	KindRPC
	// KindResponse marks codes reported by the robot inside a response.
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindSDK:
		return "sdk"
	case KindRPC:
		return "rpc"
	case KindResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Category is a namespace of integer codes.
type Category struct {
	name    string
	kind    Kind
	names   map[int32]string
	success map[int32]struct{}
}

func newCategory(name string, kind Kind, names map[int32]string, success ...int32) *Category {
	c := &Category{
		name:    name,
		kind:    kind,
		names:   make(map[int32]string, len(names)),
		success: make(map[int32]struct{}, len(success)),
	}
	for v, n := range names {
		c.names[v] = n
	}
	for _, v := range success {
		c.success[v] = struct{}{}
	}
	return c
}

// NewResponseCategory declares the category of a response status enum. The
// success values are the enum values that mean the request succeeded.
func NewResponseCategory(name string, names map[int32]string, success ...int32) *Category {
	return newCategory(name, KindResponse, names, success...)
}

// Name returns the category name.
func (c *Category) Name() string {
	if c == nil {
		return "Success"
	}
	return c.name
}

// Kind returns the family of the category.
func (c *Category) Kind() Kind {
	if c == nil {
		return KindSDK
	}
	return c.kind
}

// Code returns the code with value v in c.
func (c *Category) Code(v int32) Code {
	return Code{cat: c, value: v}
}

func (c *Category) codeName(v int32) string {
	if n, ok := c.names[v]; ok {
		return n
	}
	return fmt.Sprintf("%s(%d)", c.name, v)
}

func (c *Category) isSuccess(v int32) bool {
	_, ok := c.success[v]
	return ok
}

// Code is a comparable (category, value) pair.
type Code struct {
	cat   *Category
	value int32
}

// Category returns the category of c.
func (c Code) Category() *Category { return c.cat }

// Value returns the integer value of c within its category.
func (c Code) Value() int32 { return c.value }

// Kind returns the family of c.
func (c Code) Kind() Kind { return c.cat.Kind() }

// String returns the symbolic name of c.
func (c Code) String() string {
	if c.cat == nil {
		return "Success"
	}
	return c.cat.codeName(c.value)
}

// IsSuccess reports whether c means success.
func (c Code) IsSuccess() bool {
	if c.cat == nil {
		return true
	}
	return c.cat.isSuccess(c.value)
}

// IsSDKError reports whether c is a failing SDK code.
func (c Code) IsSDKError() bool { return !c.IsSuccess() && c.Kind() == KindSDK }

// IsRPCError reports whether c is a failing RPC code.
func (c Code) IsRPCError() bool { return !c.IsSuccess() && c.Kind() == KindRPC }

// IsResponseError reports whether c is a failing response code.
func (c Code) IsResponseError() bool { return !c.IsSuccess() && c.Kind() == KindResponse }

// IsRetryable reports whether the RPC that produced c may succeed when retried.
func (c Code) IsRetryable() bool {
	if c.cat != rpcCategory {
		return false
	}
	_, ok := retryableRPC[c]
	return ok
}

// IsPersistent reports whether the RPC that produced c will keep failing
// until something outside the call changes.
func (c Code) IsPersistent() bool {
	if c.cat != rpcCategory {
		return false
	}
	_, ok := persistentRPC[c]
	return ok
}
