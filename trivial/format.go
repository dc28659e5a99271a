package trivial

import (
	"fmt"
	"strings"
)

func (p *Program) String() string {
	var sb strings.Builder
	sb.WriteString("variables:\n")
	for i, v := range p.Variables {
		fmt.Fprintf(&sb, "  tv%d: %s %s\n", i, v.Type, v.Location)
	}
	list := func(name string, vars []VariableHandle) {
		sb.WriteString(name + ":")
		for _, v := range vars {
			fmt.Fprintf(&sb, " tv%d", v)
		}
		sb.WriteString("\n")
	}
	list("statics", p.Statics)
	list("inputs", p.Inputs)
	list("outputs", p.Outputs)
	fmt.Fprintf(&sb, "labels: %d static, %d main\n", p.StaticLabels, p.MainLabels)
	sb.WriteString("errors:\n")
	for code, msg := range p.Errors {
		fmt.Fprintf(&sb, "  %d: %s\n", code, msg)
	}
	writeStream(&sb, "static_init", p.StaticInit)
	writeStream(&sb, "main", p.Main)
	return sb.String()
}

func writeStream(sb *strings.Builder, name string, stream []Instruction) {
	sb.WriteString(name + ":\n")
	for _, inst := range stream {
		if _, ok := inst.(*Label); ok {
			sb.WriteString(" " + FormatInstruction(inst) + "\n")
			continue
		}
		sb.WriteString("    " + FormatInstruction(inst) + "\n")
	}
}
