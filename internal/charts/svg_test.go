package charts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kharcha/internal/core"
)

func TestRenderWritesBothCharts(t *testing.T) {
	dir := t.TempDir()
	r, err := NewSVGRenderer(dir)
	if err != nil {
		t.Fatalf("NewSVGRenderer: %v", err)
	}

	l := core.NewLedger()
	l.SetBudget(1000)
	_ = l.AddExpense(core.Food, 200)
	_ = l.AddExpense(core.Travel, 100)

	month := time.Date(2025, time.November, 14, 0, 0, 0, 0, time.UTC)
	paths, err := r.Render(context.Background(), "alice", month, l)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if want := filepath.Join(dir, "alice", "alice_2025-11_bar.svg"); paths.Bar != want {
		t.Fatalf("bar path %s, want %s", paths.Bar, want)
	}
	if want := filepath.Join(dir, "alice", "alice_2025-11_pie.svg"); paths.Pie != want {
		t.Fatalf("pie path %s, want %s", paths.Pie, want)
	}

	bar, err := os.ReadFile(paths.Bar)
	if err != nil {
		t.Fatalf("read bar: %v", err)
	}
	for _, cat := range core.ExpenseCategories {
		if !strings.Contains(string(bar), cat) {
			t.Errorf("bar chart misses category %s", cat)
		}
	}

	pie, err := os.ReadFile(paths.Pie)
	if err != nil {
		t.Fatalf("read pie: %v", err)
	}
	if !strings.Contains(string(pie), "Food 66.7%") || !strings.Contains(string(pie), "Travel 33.3%") {
		t.Fatalf("pie chart labels missing:\n%s", pie)
	}
	if strings.Contains(string(pie), "Loans") {
		t.Fatalf("pie chart must skip zero categories")
	}
}

func TestRenderEmptyLedger(t *testing.T) {
	r, err := NewSVGRenderer(t.TempDir())
	if err != nil {
		t.Fatalf("NewSVGRenderer: %v", err)
	}
	paths, err := r.Render(context.Background(), "bob", time.Now(), core.NewLedger())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, kind := range []core.ChartKind{core.BarChart, core.PieChart} {
		b, err := os.ReadFile(paths.Path(kind))
		if err != nil {
			t.Fatalf("read %s: %v", kind, err)
		}
		if !strings.Contains(string(b), emptyLabel) {
			t.Errorf("%s chart should show the empty note", kind)
		}
	}
}

func TestRenderHonorsCancelledContext(t *testing.T) {
	r, err := NewSVGRenderer(t.TempDir())
	if err != nil {
		t.Fatalf("NewSVGRenderer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, "carol", time.Now(), core.NewLedger()); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
