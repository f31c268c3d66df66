package parser

import (
	"context"
	"testing"

	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/modpath"
)

const pythonSample = `"""Helpers for the runtime package."""

import os

VERSION = "1.2.0"
"""The package version."""

DEFAULT_WORKERS: int = 4


def double(x: int, label: str = "2x") -> int:
    """Doubles a value.

    Returns:
        the doubled value
    """
    return x * 2


async def fetch(*args, **kwargs):
    pass


class Scheduler(BaseScheduler):
    """Runs tasks in order."""

    capacity = 16

    def tick(self, budget: int) -> bool:
        """Advance one step."""
        return budget > 0

    @staticmethod
    def version() -> str:
        return VERSION

    @property
    def size(self):
        return self.capacity
`

func TestParsePythonFile(t *testing.T) {
	t.Parallel()

	p := New(modpath.New("runtime", "runtime"))
	mod, err := p.ParsePythonFile(context.Background(), "runtime/helpers.py", []byte(pythonSample), model.OriginPython)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := modpath.Display(mod.Path, model.LangPython); got != "runtime.helpers" {
		t.Errorf("path = %s", got)
	}
	if mod.Doc != "Helpers for the runtime package." {
		t.Errorf("module doc = %q", mod.Doc)
	}

	if len(mod.Items) != 5 {
		t.Fatalf("items = %d, want 5", len(mod.Items))
	}

	version := mod.Items[0].(*model.PyVariable)
	if version.Name != "VERSION" || version.Value != `"1.2.0"` {
		t.Errorf("VERSION = %+v", version)
	}
	if version.Doc != "The package version." {
		t.Errorf("VERSION doc = %q", version.Doc)
	}

	workers := mod.Items[1].(*model.PyVariable)
	if workers.Name != "DEFAULT_WORKERS" || workers.Type != "int" {
		t.Errorf("DEFAULT_WORKERS = %+v", workers)
	}

	double := mod.Items[2].(*model.PyFunction)
	if double.Signature != `def double(x: int, label: str = "2x") -> int` {
		t.Errorf("signature = %q", double.Signature)
	}
	if len(double.Params) != 2 {
		t.Fatalf("params = %+v", double.Params)
	}
	if double.Params[0].Name != "x" || double.Params[0].Type != "int" {
		t.Errorf("param 0 = %+v", double.Params[0])
	}
	if double.Params[1].Name != "label" || double.Params[1].Default != `"2x"` {
		t.Errorf("param 1 = %+v", double.Params[1])
	}
	if double.Doc == "" {
		t.Error("docstring not captured")
	}

	fetch := mod.Items[3].(*model.PyFunction)
	if !fetch.IsAsync {
		t.Error("fetch not async")
	}
	if len(fetch.Params) != 2 || fetch.Params[0].Name != "*args" || fetch.Params[1].Name != "**kwargs" {
		t.Errorf("fetch params = %+v", fetch.Params)
	}

	class := mod.Items[4].(*model.PyClass)
	if class.Name != "Scheduler" || class.Doc != "Runs tasks in order." {
		t.Errorf("class = %+v", class)
	}
	if len(class.Bases) != 1 || class.Bases[0] != "BaseScheduler" {
		t.Errorf("bases = %v", class.Bases)
	}
	if len(class.Attributes) != 1 || class.Attributes[0].Name != "capacity" {
		t.Errorf("attributes = %+v", class.Attributes)
	}
	if len(class.Methods) != 3 {
		t.Fatalf("methods = %+v", class.Methods)
	}
	tick := class.Methods[0]
	if tick.Name != "tick" || tick.Doc != "Advance one step." || tick.ReturnType != "bool" {
		t.Errorf("tick = %+v", tick)
	}
	if !class.Methods[1].IsStaticM {
		t.Error("version not staticmethod")
	}
	if !class.Methods[2].IsProperty {
		t.Error("size not property")
	}
}

func TestParsePythonStub(t *testing.T) {
	t.Parallel()

	stub := "class Engine:\n    def start(self, level: int) -> bool: ...\n"
	p := New(modpath.New("runtime", "runtime"))
	mod, err := p.ParsePythonFile(context.Background(), "_native.pyi", []byte(stub), model.OriginBinding)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := modpath.Display(mod.Path, model.LangPython); got != "runtime._native" {
		t.Errorf("path = %s", got)
	}
	if mod.Origin != model.OriginBinding {
		t.Errorf("origin = %s", mod.Origin)
	}
	class := mod.Items[0].(*model.PyClass)
	if len(class.Methods) != 1 || class.Methods[0].Name != "start" {
		t.Fatalf("methods = %+v", class.Methods)
	}
}
