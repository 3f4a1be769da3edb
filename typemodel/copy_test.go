package typemodel

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type fixedHandle string

func (h fixedHandle) Name() string        { return string(h) }
func (h fixedHandle) IsInstance(any) bool { return true }

func TestCopyDefinitions(t *testing.T) {
	key := NewBasic(KindSymbol)
	key.Metadata.Key = "style"
	key.Metadata.Handle = fixedHandle(KindSymbol)
	options := &TypeNode{Kind: KindHash, Shape: ShapeFixedHash, Keys: []*TypeNode{key}, Values: []*TypeNode{NewBasic("String")}}
	module := &ModuleDefinition{
		Name: "Geo",
		Children: []Definition{&ClassDefinition{
			Name:   "Geo::Point",
			Parent: "Object",
			Vars:   []*VarDefinition{{Name: "@x", Types: []*TypeNode{NewBasic("Float")}}},
			Children: []Definition{&MethodDefinition{
				Name:       "draw",
				Parameters: []*ParameterDefinition{{Name: "opts", Types: []*TypeNode{options}}},
				Returns:    &ReturnDefinition{Types: []*TypeNode{NewUntyped("")}},
			}},
		}},
	}

	copied := CopyDefinitions([]Definition{module})
	require.Len(t, copied, 1)
	class := copied[0].(*ModuleDefinition).Children[0].(*ClassDefinition)
	assert.Equal(t, "Geo::Point", class.Name)
	assert.Equal(t, "Object", class.Parent)
	assert.Equal(t, 1, CountMethods(copied))

	draw := class.Children[0].(*MethodDefinition)
	copiedKey := draw.Parameters[0].Types[0].Keys[0]
	assert.NotSame(t, key, copiedKey)
	assert.Equal(t, "style", copiedKey.Metadata.Key)
	assert.False(t, copiedKey.Resolved(), "handles are not carried over")
	assert.Equal(t, options.String(), draw.Parameters[0].Types[0].String())

	class.SetMembers(nil)
	class.Vars[0].Name = "@y"
	original := module.Children[0].(*ClassDefinition)
	assert.Len(t, original.Members(), 1)
	assert.Equal(t, "@x", original.Vars[0].Name)
}
