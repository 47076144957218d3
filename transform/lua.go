package transform

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.mongodb.org/mongo-driver/bson"
	luajson "layeh.com/gopher-json"
)

type LuaTransformerConfig struct {
	Name       string `yaml:"-"`
	ScriptPath string `yaml:"script-path"`
}

// LuaTransformer rewrites insert documents using a user-provided lua script.
// The script MUST contain a function named `transform_document` which takes
// the document as a table and returns the (possibly modified) document as a
// table. Returning nil from the script rejects the document.
// Note that user can have access to JSON helper using `local json = require("json")`
type LuaTransformer struct {
	cfg  LuaTransformerConfig
	pool *sync.Pool
}

func NewLuaTransformer(cfg LuaTransformerConfig) (*LuaTransformer, error) {
	pool := &sync.Pool{
		New: func() any {
			L := lua.NewState(lua.Options{
				SkipOpenLibs: true, // Don't load anything by default
			})

			// Manually open only the safe libraries
			// We skip 'os' and 'io' to prevent system commands/file access
			for _, lib := range []struct {
				name string
				fn   lua.LGFunction
			}{
				{lua.LoadLibName, lua.OpenPackage},  // Allows 'require'
				{lua.BaseLibName, lua.OpenBase},     // Allows 'print', 'pairs', etc.
				{lua.TabLibName, lua.OpenTable},     // Allows 'table.insert', etc.
				{lua.StringLibName, lua.OpenString}, // Allows string manipulation
			} {
				L.Push(L.NewFunction(lib.fn))
				L.Push(lua.LString(lib.name))
				L.Call(1, 0)
			}

			// Pre-register the JSON module in this VM
			// This allows the user to do: local json = require("json")
			luajson.Preload(L)

			// Load the user's script once per VM in the pool
			if err := L.DoFile(cfg.ScriptPath); err != nil {
				panic(err)
			}

			return L
		},
	}

	return &LuaTransformer{
		cfg:  cfg,
		pool: pool,
	}, nil
}

func (lt *LuaTransformer) Name() string {
	return lt.cfg.Name
}

func (lt *LuaTransformer) Transform(document bson.M) (bson.M, error) {
	L := lt.pool.Get().(*lua.LState)
	defer lt.pool.Put(L)

	// Call the "transform_document" function defined in Lua
	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("transform_document"),
		NRet:    1,
		Protect: true,
	}, mapToLuaTable(L, document))

	if err != nil {
		return document, fmt.Errorf("lua script error: %w", err)
	}

	result := L.ToTable(-1)

	// Clean up stack IMMEDIATELY after extraction
	L.Pop(1)

	if result == nil {
		return document, fmt.Errorf("lua script `%s` rejected the document", lt.cfg.Name)
	}

	return bson.M(luaTableToMap(result)), nil
}

func mapToLuaTable(L *lua.LState, m map[string]any) *lua.LTable {
	table := L.NewTable()
	for key, value := range m {
		table.RawSetString(key, goValueToLua(L, value))
	}
	return table
}

func goValueToLua(L *lua.LState, value any) lua.LValue {
	switch v := value.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int32:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float32:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []any:
		table := L.NewTable()
		for _, item := range v {
			table.Append(goValueToLua(L, item))
		}
		return table
	case map[string]any:
		return mapToLuaTable(L, v)
	case bson.M:
		return mapToLuaTable(L, v)
	default:
		// Fallback for types we don't explicitly handle
		return lua.LString(fmt.Sprintf("%v", v))
	}
}

func luaTableToMap(table *lua.LTable) map[string]any {
	res := make(map[string]any)
	table.ForEach(func(key, value lua.LValue) {
		res[key.String()] = convertLuaValue(value)
	})
	return res
}

func convertLuaValue(value lua.LValue) any {
	switch v := value.(type) {
	case *lua.LTable:
		// Treat every table as a map for consistency in documents
		return luaTableToMap(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case lua.LBool:
		return bool(v)
	case *lua.LNilType:
		return nil
	default:
		if value == lua.LNil {
			return nil
		}

		// Fallback for types we don't explicitly handle (like functions or userdata)
		return v.String()
	}
}
