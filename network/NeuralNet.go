// Package network implements feed forward neural networks as Gorgonia
// computational graphs, together with helpers to move weights between
// graphs that share the same architecture.
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// CopyLearnables copies the values of the source nodes into the
// values of the destination nodes in place. Nodes are matched by
// position and must have equal shapes.
func CopyLearnables(dest, source G.Nodes) error {
	if len(dest) != len(source) {
		return fmt.Errorf("copyLearnables: cannot copy %d nodes into %d "+
			"nodes", len(source), len(dest))
	}

	for i := range dest {
		if !dest[i].Shape().Eq(source[i].Shape()) {
			return fmt.Errorf("copyLearnables: shape mismatch for node %v: "+
				"\n\twant(%v) \n\thave(%v)", dest[i].Name(), dest[i].Shape(),
				source[i].Shape())
		}

		destData, ok := dest[i].Value().Data().([]float64)
		if !ok {
			return fmt.Errorf("copyLearnables: node %v does not hold "+
				"float64 data", dest[i].Name())
		}
		sourceData, ok := source[i].Value().Data().([]float64)
		if !ok {
			return fmt.Errorf("copyLearnables: node %v does not hold "+
				"float64 data", source[i].Name())
		}
		copy(destData, sourceData)
	}
	return nil
}

// Values returns a deep copy of the data held by each node.
func Values(nodes G.Nodes) [][]float64 {
	out := make([][]float64, len(nodes))
	for i, node := range nodes {
		data := node.Value().Data().([]float64)
		out[i] = append([]float64(nil), data...)
	}
	return out
}

// Let sets the value of a matrix input node from a flat slice of
// row-major data.
func Let(node *G.Node, data []float64) error {
	if len(data) != node.Shape().TotalSize() {
		return fmt.Errorf("let: invalid number of values for node %v"+
			"\n\twant(%v)\n\thave(%v)", node.Name(), node.Shape().TotalSize(),
			len(data))
	}
	t := tensor.New(
		tensor.WithBacking(data),
		tensor.WithShape(node.Shape()...),
	)
	return G.Let(node, t)
}
