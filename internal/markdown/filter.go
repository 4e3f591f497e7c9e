package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// LineFunc is the global a filter script must define. It is called as
// line(text, index) for every body line and returns the replacement text,
// or nil to keep the line unchanged.
const LineFunc = "line"

// Filter rewrites markdown source line by line with a Lua script before it
// is converted. A filter may change the text of a line but never the number
// of lines, so source-line tags stay valid.
//
// The Lua state is not goroutine-safe; Apply serializes callers.
type Filter struct {
	name string

	mu     sync.Mutex
	L      *lua.LState
	fn     *lua.LFunction
	closed bool
}

// LoadFilter reads and compiles the filter script at path.
func LoadFilter(path string) (*Filter, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read filter: %w", err)
	}
	return NewFilter(filepath.Base(path), string(code))
}

// NewFilter compiles a filter script.
func NewFilter(name, code string) (*Filter, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	if err := L.DoString(code); err != nil {
		L.Close()
		return nil, fmt.Errorf("filter %s: %w", name, err)
	}
	fn, ok := L.GetGlobal(LineFunc).(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("filter %s: %w", name, ErrNoLineFunc)
	}
	return &Filter{name: name, L: L, fn: fn}, nil
}

// openSafeLibraries opens the libraries a text filter needs and nothing
// that reaches the file system or the process.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Name returns the filter name.
func (f *Filter) Name() string {
	return f.name
}

// Apply runs the filter over every line of body.
func (f *Filter) Apply(ctx context.Context, body string) (out string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return "", ErrFilterClosed
	}

	f.L.SetContext(ctx)
	defer f.L.RemoveContext()

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		replaced, err := f.call(line, i)
		if err != nil {
			return "", &FilterError{Filter: f.name, Line: i, Err: err}
		}
		if strings.Contains(replaced, "\n") {
			return "", &FilterError{Filter: f.name, Line: i, Err: ErrLineCount}
		}
		lines[i] = replaced
	}
	return strings.Join(lines, "\n"), nil
}

func (f *Filter) call(line string, index int) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	err = f.L.CallByParam(lua.P{Fn: f.fn, NRet: 1, Protect: true},
		lua.LString(line), lua.LNumber(index))
	if err != nil {
		return "", err
	}
	ret := f.L.Get(-1)
	f.L.Pop(1)

	switch v := ret.(type) {
	case *lua.LNilType:
		return line, nil
	case lua.LString:
		return string(v), nil
	case lua.LBool:
		if !bool(v) {
			return line, nil
		}
	}
	return "", fmt.Errorf("line function returned %s, want string or nil", ret.Type())
}

// Close releases the Lua state.
func (f *Filter) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.L.Close()
}
