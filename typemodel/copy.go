package typemodel

// Copy returns a deep copy of n. The resolved handle is not copied, so the
// copy can be resolved against another namespace.
func (n *TypeNode) Copy() *TypeNode {
	if n == nil {
		return nil
	}
	c := &TypeNode{
		Kind:     n.Kind,
		Shape:    n.Shape,
		Children: copyNodes(n.Children),
		Keys:     copyNodes(n.Keys),
		Values:   copyNodes(n.Values),
		Metadata: Metadata{
			Note:     n.Metadata.Note,
			Key:      n.Metadata.Key,
			Defaults: append([]string(nil), n.Metadata.Defaults...),
		},
	}
	return c
}

func copyNodes(nodes []*TypeNode) []*TypeNode {
	if nodes == nil {
		return nil
	}
	copied := make([]*TypeNode, len(nodes))
	for i, n := range nodes {
		copied[i] = n.Copy()
	}
	return copied
}

func (d *ModuleDefinition) Copy() *ModuleDefinition {
	c := *d
	c.TypeParameters = append([]string(nil), d.TypeParameters...)
	c.Children = CopyDefinitions(d.Children)
	c.Vars = copyVars(d.Vars)
	return &c
}

func (d *ClassDefinition) Copy() *ClassDefinition {
	c := *d
	c.TypeParameters = append([]string(nil), d.TypeParameters...)
	c.Children = CopyDefinitions(d.Children)
	c.Vars = copyVars(d.Vars)
	return &c
}

func (d *MethodDefinition) Copy() *MethodDefinition {
	c := *d
	if d.Parameters != nil {
		c.Parameters = make([]*ParameterDefinition, len(d.Parameters))
		for i, p := range d.Parameters {
			c.Parameters[i] = p.Copy()
		}
	}
	if d.Returns != nil {
		c.Returns = d.Returns.Copy()
	}
	return &c
}

func (d *ParameterDefinition) Copy() *ParameterDefinition {
	c := *d
	c.Types = copyNodes(d.Types)
	return &c
}

func (d *ReturnDefinition) Copy() *ReturnDefinition {
	c := *d
	c.Types = copyNodes(d.Types)
	return &c
}

func (d *VarDefinition) Copy() *VarDefinition {
	c := *d
	c.Types = copyNodes(d.Types)
	return &c
}

func copyVars(vars []*VarDefinition) []*VarDefinition {
	if vars == nil {
		return nil
	}
	copied := make([]*VarDefinition, len(vars))
	for i, v := range vars {
		copied[i] = v.Copy()
	}
	return copied
}

// CopyDefinitions deep-copies a definition tree, leaving every TypeNode unresolved
func CopyDefinitions(defs []Definition) []Definition {
	if defs == nil {
		return nil
	}
	copied := make([]Definition, len(defs))
	for i, def := range defs {
		switch d := def.(type) {
		case *ModuleDefinition:
			copied[i] = d.Copy()
		case *ClassDefinition:
			copied[i] = d.Copy()
		case *MethodDefinition:
			copied[i] = d.Copy()
		case *ParameterDefinition:
			copied[i] = d.Copy()
		case *ReturnDefinition:
			copied[i] = d.Copy()
		case *VarDefinition:
			copied[i] = d.Copy()
		default:
			copied[i] = def
		}
	}
	return copied
}
