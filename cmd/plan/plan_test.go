package plan

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetermineOutputsDefault(t *testing.T) {
	ResetFlags()

	outputs, err := determineOutputs()
	if err != nil {
		t.Fatalf("determineOutputs() error: %v", err)
	}
	expected := []outputSpec{{format: "human", target: "stdout"}}
	if diff := cmp.Diff(expected, outputs, cmp.AllowUnexported(outputSpec{})); diff != "" {
		t.Errorf("default outputs (-want +got):\n%s", diff)
	}
}

func TestDetermineOutputsMixedTargets(t *testing.T) {
	ResetFlags()
	outputHuman = "stdout"
	outputJSON = "plan.json"
	outputSQL = "migrate.sql"
	defer ResetFlags()

	outputs, err := determineOutputs()
	if err != nil {
		t.Fatalf("determineOutputs() error: %v", err)
	}
	expected := []outputSpec{
		{format: "human", target: "stdout"},
		{format: "json", target: "plan.json"},
		{format: "sql", target: "migrate.sql"},
	}
	if diff := cmp.Diff(expected, outputs, cmp.AllowUnexported(outputSpec{})); diff != "" {
		t.Errorf("outputs (-want +got):\n%s", diff)
	}
}

func TestDetermineOutputsRejectsMultipleStdout(t *testing.T) {
	ResetFlags()
	outputJSON = "stdout"
	outputSQL = "stdout"
	defer ResetFlags()

	_, err := determineOutputs()
	if err == nil || !strings.Contains(err.Error(), "only one output format can use stdout") {
		t.Errorf("expected stdout conflict error, got %v", err)
	}
}

func TestConfigFromFlagsSchemaDefaultsToDB(t *testing.T) {
	ResetFlags()
	planDB = "analytics"
	defer ResetFlags()

	config := ConfigFromFlags()
	if config.Schema != "analytics" {
		t.Errorf("schema = %q, want the database name", config.Schema)
	}

	planSchema = "reporting"
	config = ConfigFromFlags()
	if config.Schema != "reporting" {
		t.Errorf("schema = %q, want the explicit flag value", config.Schema)
	}
}

func TestConfigFromFlagsPasswordFallback(t *testing.T) {
	ResetFlags()
	defer ResetFlags()
	t.Setenv("SRPASSWORD", "fromenv")

	config := ConfigFromFlags()
	if config.Password != "fromenv" {
		t.Errorf("password = %q, want the environment fallback", config.Password)
	}

	planPassword = "fromflag"
	config = ConfigFromFlags()
	if config.Password != "fromflag" {
		t.Errorf("password = %q, want the flag to win", config.Password)
	}
}
