package id

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Generator struct{}

func New() *Generator {
	return &Generator{}
}

func (g *Generator) generate(prefix string) string {
	id, err := gonanoid.New(21)
	if err != nil {
		return prefix + "_fallback"
	}
	return prefix + "_" + id
}

func (g *Generator) GenerateVersionID() string {
	return g.generate("pfv")
}

func (g *Generator) GenerateEvaluationRunID() string {
	return g.generate("pfe")
}

func (g *Generator) GenerateQueryResultID() string {
	return g.generate("pfq")
}

func (g *Generator) GenerateReportID() string {
	return g.generate("pfr")
}

func (g *Generator) GenerateOptimizationRunID() string {
	return g.generate("pfo")
}
