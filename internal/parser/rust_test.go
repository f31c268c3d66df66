package parser

import (
	"context"
	"testing"

	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/modpath"
)

const rustSample = `//! Scheduling primitives.
//!
//! Exposed to Python as part of the native extension.

use std::collections::HashMap;

/// Maximum queued tasks.
pub const MAX_TASKS: usize = 1024;

pub type TaskId = u64;

/// A task scheduler.
///
/// # Examples
///
/// ` + "```" + `
/// let s = Scheduler::new(4);
/// ` + "```" + `
#[derive(Debug, Clone)]
#[pyclass(name = "Scheduler", module = "runtime")]
pub struct RsScheduler {
    /// Number of workers.
    workers: usize,
    pub(crate) queue: Vec<TaskId>,
}

#[pymethods]
impl RsScheduler {
    /// Runs one tick.
    pub fn tick(&self, budget: u32) -> PyResult<bool> {
        Ok(budget > 0)
    }

    #[pyo3(name = "drain")]
    pub fn drain_queue(&mut self) -> Vec<TaskId> {
        Vec::new()
    }
}

/// Task state.
#[pyclass]
pub enum State {
    /// Waiting to run.
    Idle,
    Running,
}

/// Doubles a number.
///
/// # Arguments
///
/// * ` + "`x`" + ` - the input
#[pyfunction]
pub async fn double(x: i64) -> i64 {
    x * 2
}

fn private_helper() {}

pub trait Runnable {
    /// Starts the runnable.
    fn start(&mut self);
}

#[pymodule]
fn runtime(m: &Bound<'_, PyModule>) -> PyResult<()> {
    Ok(())
}
`

func TestParseRustFile(t *testing.T) {
	t.Parallel()

	p := New(modpath.New("runtime", "runtime"))
	mod, err := p.ParseRustFile(context.Background(), "lib.rs", []byte(rustSample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := modpath.Display(mod.Path, model.LangRust); got != "runtime" {
		t.Errorf("path = %s", got)
	}
	if mod.Doc != "Scheduling primitives.\n\nExposed to Python as part of the native extension." {
		t.Errorf("module doc = %q", mod.Doc)
	}

	// The #[pymodule] init function is registration glue, not API.
	wantKinds := []model.RustItemKind{
		model.KindRustConst, model.KindRustTypeAlias, model.KindRustStruct,
		model.KindRustImpl, model.KindRustEnum, model.KindRustFunction,
		model.KindRustFunction, model.KindRustTrait,
	}
	if len(mod.Items) != len(wantKinds) {
		t.Fatalf("items = %d, want %d", len(mod.Items), len(wantKinds))
	}
	for i, want := range wantKinds {
		if mod.Items[i].Kind() != want {
			t.Errorf("item %d kind = %s, want %s", i, mod.Items[i].Kind(), want)
		}
	}

	c := mod.Items[0].(*model.RustConst)
	if c.Name != "MAX_TASKS" || c.Type != "usize" || c.Value != "1024" || c.Doc != "Maximum queued tasks." {
		t.Errorf("const = %+v", c)
	}

	s := mod.Items[2].(*model.RustStruct)
	if s.Name != "RsScheduler" || s.Vis != model.VisPublic {
		t.Errorf("struct = %+v", s)
	}
	if s.Binding == nil || s.Binding.Name != "Scheduler" || s.Binding.Module != "runtime" {
		t.Errorf("struct binding = %+v", s.Binding)
	}
	if len(s.Derives) != 2 || s.Derives[0] != "Debug" {
		t.Errorf("derives = %v", s.Derives)
	}
	if len(s.Fields) != 2 {
		t.Fatalf("fields = %+v", s.Fields)
	}
	if s.Fields[0].Name != "workers" || s.Fields[0].Doc != "Number of workers." || s.Fields[0].Vis != model.VisPrivate {
		t.Errorf("field 0 = %+v", s.Fields[0])
	}
	if s.Fields[1].Vis != model.VisCrate {
		t.Errorf("field 1 vis = %s", s.Fields[1].Vis)
	}
	if s.Src.Location.LineStart == 0 || s.Src.Location.LineEnd < s.Src.Location.LineStart {
		t.Errorf("struct span = %+v", s.Src.Location)
	}

	imp := mod.Items[3].(*model.RustImpl)
	if !imp.PyMethods || imp.Target != "RsScheduler" {
		t.Errorf("impl = %+v", imp)
	}
	if len(imp.Methods) != 2 {
		t.Fatalf("methods = %+v", imp.Methods)
	}
	tick := imp.Methods[0]
	if tick.Name != "tick" || tick.Doc != "Runs one tick." || tick.ReturnType != "-> PyResult<bool>" && tick.ReturnType != "PyResult<bool>" {
		t.Errorf("tick = %+v", tick)
	}
	if len(tick.Params) != 2 || tick.Params[0].Name != "self" || tick.Params[1].Name != "budget" {
		t.Errorf("tick params = %+v", tick.Params)
	}
	drain := imp.Methods[1]
	if drain.Binding == nil || drain.Binding.Name != "drain" {
		t.Errorf("drain binding = %+v", drain.Binding)
	}

	e := mod.Items[4].(*model.RustEnum)
	if e.Binding == nil {
		t.Error("enum binding missing")
	}
	if len(e.Variants) != 2 || e.Variants[0].Doc != "Waiting to run." {
		t.Errorf("variants = %+v", e.Variants)
	}

	double := mod.Items[5].(*model.RustFunction)
	if double.Binding == nil || !double.IsAsync {
		t.Errorf("double = %+v", double)
	}

	helper := mod.Items[6].(*model.RustFunction)
	if helper.Name != "private_helper" || helper.Vis != model.VisPrivate || helper.Binding != nil {
		t.Errorf("helper = %+v", helper)
	}

	tr := mod.Items[7].(*model.RustTrait)
	if tr.Name != "Runnable" || len(tr.Methods) != 1 || tr.Methods[0].Name != "start" {
		t.Errorf("trait = %+v", tr)
	}
}

func TestParseRustModRs(t *testing.T) {
	t.Parallel()

	p := New(modpath.New("runtime", "runtime"))
	mod, err := p.ParseRustFile(context.Background(), "tasks/mod.rs", []byte("//! Task module.\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := modpath.Display(mod.Path, model.LangRust); got != "runtime::tasks" {
		t.Errorf("path = %s", got)
	}
}
