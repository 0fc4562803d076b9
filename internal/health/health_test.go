package health

import (
	"context"
	"testing"
)

func passing(name string) Checker {
	return func(ctx context.Context) Status {
		return Status{Name: name, Healthy: true}
	}
}

func failing(name, detail string) Checker {
	return func(ctx context.Context) Status {
		return Status{Name: name, Healthy: false, Detail: detail}
	}
}

func TestCheckAll_Empty(t *testing.T) {
	r := NewRegistry()
	healthy, statuses := r.CheckAll(context.Background())
	if !healthy {
		t.Error("empty registry should report healthy")
	}
	if len(statuses) != 0 {
		t.Errorf("expected no statuses, got %d", len(statuses))
	}
}

func TestCheckAll_AllPassing(t *testing.T) {
	r := NewRegistry()
	r.Register("store", passing("store"))
	r.Register("database", passing("database"))

	healthy, statuses := r.CheckAll(context.Background())
	if !healthy {
		t.Error("expected healthy when every checker passes")
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Name != "store" || statuses[1].Name != "database" {
		t.Errorf("registration order not preserved: %+v", statuses)
	}
}

func TestCheckAll_OneFailing(t *testing.T) {
	r := NewRegistry()
	r.Register("store", passing("store"))
	r.Register("database", failing("database", "connection refused"))

	healthy, statuses := r.CheckAll(context.Background())
	if healthy {
		t.Error("one failing checker should mark the aggregate unhealthy")
	}
	var found bool
	for _, st := range statuses {
		if st.Name == "database" {
			found = true
			if st.Healthy {
				t.Error("database status should be unhealthy")
			}
			if st.Detail != "connection refused" {
				t.Errorf("unexpected detail %q", st.Detail)
			}
		}
	}
	if !found {
		t.Error("database status missing from results")
	}
}

func TestCheckAll_FillsMissingName(t *testing.T) {
	r := NewRegistry()
	r.Register("anonymous", func(ctx context.Context) Status {
		return Status{Healthy: true}
	})

	_, statuses := r.CheckAll(context.Background())
	if len(statuses) != 1 || statuses[0].Name != "anonymous" {
		t.Errorf("expected registered name to be filled in, got %+v", statuses)
	}
}

func TestCheckAll_ReceivesContext(t *testing.T) {
	r := NewRegistry()
	type key struct{}
	r.Register("ctx", func(ctx context.Context) Status {
		if ctx.Value(key{}) != "probe" {
			return Status{Name: "ctx", Healthy: false, Detail: "context value missing"}
		}
		return Status{Name: "ctx", Healthy: true}
	})

	ctx := context.WithValue(context.Background(), key{}, "probe")
	healthy, _ := r.CheckAll(ctx)
	if !healthy {
		t.Error("checker did not see the caller context")
	}
}
