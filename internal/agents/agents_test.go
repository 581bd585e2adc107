package agents

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeRoster writes a roster file into a temp dir and returns its path.
func writeRoster(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	return path
}

const yamlRoster = `
agents:
  - id: it-support
    name: IT Support
    description: Hardware and software issues
    icon: laptop
    collection_name: it_support_tickets
    data_source: data/it_tickets.json
    system_prompt: You are the IT support specialist.
  - id: hr
    name: HR Helpdesk
    description: People questions
    icon: users
    collection_name: hr_tickets
    data_source: data/hr_tickets.csv
`

func Test_Registry_LoadYAML(t *testing.T) {
	t.Parallel()

	reg, err := Load(writeRoster(t, "agents.yaml", yamlRoster))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("want 2 agents, got %d", len(all))
	}
	if all[0].ID != "it-support" || all[0].CollectionName != "it_support_tickets" {
		t.Errorf("agent[0]: got %+v", all[0])
	}
	if all[1].SystemPrompt != "" {
		t.Errorf("agent[1] should have no system prompt, got %q", all[1].SystemPrompt)
	}
}

func Test_Registry_LoadJSON(t *testing.T) {
	t.Parallel()

	roster := `{"agents": [{"id": "net", "name": "Network", "collection_name": "net_tickets", "data_source": "data/net.json"}]}`
	reg, err := Load(writeRoster(t, "agents.json", roster))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(reg.All()) != 1 {
		t.Fatalf("want 1 agent, got %d", len(reg.All()))
	}
}

func Test_Registry_Get(t *testing.T) {
	t.Parallel()

	reg, err := Load(writeRoster(t, "agents.yaml", yamlRoster))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	a, err := reg.Get("hr")
	if err != nil {
		t.Fatalf("get hr: %v", err)
	}
	if a.Name != "HR Helpdesk" {
		t.Errorf("want HR Helpdesk, got %q", a.Name)
	}

	if _, err := reg.Get("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound for unknown agent, got %v", err)
	}
}

func Test_Registry_RejectsMissingCollection(t *testing.T) {
	t.Parallel()

	roster := "agents:\n  - id: broken\n    name: Broken\n"
	if _, err := Load(writeRoster(t, "agents.yaml", roster)); err == nil {
		t.Error("want error for missing collection_name, got nil")
	}
}

func Test_Registry_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("want error for missing roster file, got nil")
	}
}

func Test_Registry_ReloadKeepsOldRosterOnFailure(t *testing.T) {
	t.Parallel()

	path := writeRoster(t, "agents.yaml", yamlRoster)
	reg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove roster: %v", err)
	}
	if err := reg.Reload(); err == nil {
		t.Fatal("want reload error after roster removal, got nil")
	}
	if len(reg.All()) != 2 {
		t.Errorf("roster should survive a failed reload, got %d agents", len(reg.All()))
	}
}
