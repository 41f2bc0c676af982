package differ

import (
	"os"
	"path/filepath"
	"testing"

	bookworm "github.com/lex00/bookworm-infra-go"
)

func TestCompare(t *testing.T) {
	t1 := &bookworm.Template{
		Resources: map[string]bookworm.ResourceDef{
			"BookCoversBucket": {Type: "AWS::S3::Bucket", Properties: map[string]any{"BucketName": "bookworm-covers-eu-west-1"}},
			"AssetsBucket":     {Type: "AWS::S3::Bucket", Properties: map[string]any{"BucketName": "bookworm-assets"}},
		},
	}

	t2 := &bookworm.Template{
		Resources: map[string]bookworm.ResourceDef{
			"BookCoversBucket":         {Type: "AWS::S3::Bucket", Properties: map[string]any{"BucketName": "bookworm-covers-us-east-1"}},
			"ThumbnailGenerationQueue": {Type: "AWS::SQS::Queue", Properties: map[string]any{"QueueName": "q"}},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Diff.Removed) != 1 {
		t.Errorf("Removed = %d, want 1", len(result.Diff.Removed))
	} else if result.Diff.Removed[0].Resource != "AssetsBucket" {
		t.Errorf("Removed[0].Resource = %s, want AssetsBucket", result.Diff.Removed[0].Resource)
	}

	if len(result.Diff.Added) != 1 {
		t.Errorf("Added = %d, want 1", len(result.Diff.Added))
	} else if result.Diff.Added[0].Type != "AWS::SQS::Queue" {
		t.Errorf("Added[0].Type = %s, want AWS::SQS::Queue", result.Diff.Added[0].Type)
	}

	if len(result.Diff.Modified) != 1 {
		t.Errorf("Modified = %d, want 1", len(result.Diff.Modified))
	} else if got := result.Diff.Modified[0].Changes; len(got) != 1 || got[0] != "BucketName modified" {
		t.Errorf("Modified[0].Changes = %v, want [BucketName modified]", got)
	}

	if result.Summary.Total != 3 {
		t.Errorf("Summary.Total = %d, want 3", result.Summary.Total)
	}
}

func TestCompareIdentical(t *testing.T) {
	template := &bookworm.Template{
		Resources: map[string]bookworm.ResourceDef{
			"Queue": {Type: "AWS::SQS::Queue", Properties: map[string]any{"VisibilityTimeout": 120}},
		},
	}

	result, err := Compare(template, template, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if !result.Empty() {
		t.Errorf("Summary.Total = %d, want 0 for identical templates", result.Summary.Total)
	}
}

func TestCompareNumericRepresentations(t *testing.T) {
	built := &bookworm.Template{Resources: map[string]bookworm.ResourceDef{
		"Queue": {Type: "AWS::SQS::Queue", Properties: map[string]any{"VisibilityTimeout": int64(120)}},
	}}
	loaded := &bookworm.Template{Resources: map[string]bookworm.ResourceDef{
		"Queue": {Type: "AWS::SQS::Queue", Properties: map[string]any{"VisibilityTimeout": float64(120)}},
	}}

	result, err := Compare(built, loaded, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if !result.Empty() {
		t.Errorf("expected no changes, got %+v", result.Diff)
	}
}

func TestCompareNil(t *testing.T) {
	t2 := &bookworm.Template{Resources: map[string]bookworm.ResourceDef{
		"Queue": {Type: "AWS::SQS::Queue"},
	}}

	result, err := Compare(nil, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.Summary.Added != 1 {
		t.Errorf("Summary.Added = %d, want 1", result.Summary.Added)
	}
}

func TestCompareTypeChange(t *testing.T) {
	t1 := &bookworm.Template{
		Resources: map[string]bookworm.ResourceDef{
			"Resource1": {Type: "AWS::S3::Bucket"},
		},
	}

	t2 := &bookworm.Template{
		Resources: map[string]bookworm.ResourceDef{
			"Resource1": {Type: "AWS::S3::AccessPoint"},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Diff.Modified) != 1 {
		t.Fatalf("Modified = %d, want 1", len(result.Diff.Modified))
	}

	found := false
	for _, change := range result.Diff.Modified[0].Changes {
		if change == "Type changed: AWS::S3::Bucket → AWS::S3::AccessPoint" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected type change to be detected")
	}
}

func TestCompareDeletionPolicy(t *testing.T) {
	t1 := &bookworm.Template{Resources: map[string]bookworm.ResourceDef{
		"Bucket": {Type: "AWS::S3::Bucket"},
	}}
	t2 := &bookworm.Template{Resources: map[string]bookworm.ResourceDef{
		"Bucket": {Type: "AWS::S3::Bucket", DeletionPolicy: "Delete", DependsOn: []string{"QueuePolicy"}},
	}}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	changes := result.Diff.Modified[0].Changes
	want := []string{"DependsOn changed", "DeletionPolicy changed: none → Delete"}
	if len(changes) != len(want) {
		t.Fatalf("Changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("Changes[%d] = %q, want %q", i, changes[i], want[i])
		}
	}
}

func TestCompareProperties(t *testing.T) {
	tests := []struct {
		name   string
		props1 map[string]any
		props2 map[string]any
		want   []string
	}{
		{
			name:   "identical",
			props1: map[string]any{"Key": "value"},
			props2: map[string]any{"Key": "value"},
		},
		{
			name:   "added property",
			props1: map[string]any{},
			props2: map[string]any{"Key": "value"},
			want:   []string{"Key added"},
		},
		{
			name:   "removed property",
			props1: map[string]any{"Key": "value"},
			props2: map[string]any{},
			want:   []string{"Key removed"},
		},
		{
			name:   "nested property",
			props1: map[string]any{"RedrivePolicy": map[string]any{"maxReceiveCount": 1, "deadLetterTargetArn": "a"}},
			props2: map[string]any{"RedrivePolicy": map[string]any{"maxReceiveCount": 3, "deadLetterTargetArn": "a"}},
			want:   []string{"RedrivePolicy.maxReceiveCount modified"},
		},
		{
			name:   "intrinsic compared whole",
			props1: map[string]any{"Queue": map[string]any{"Fn::GetAtt": []any{"Queue", "Arn"}}},
			props2: map[string]any{"Queue": map[string]any{"Ref": "Queue"}},
			want:   []string{"Queue modified"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := compareProperties("", tt.props1, tt.props2, Options{})
			if len(changes) != len(tt.want) {
				t.Fatalf("compareProperties() = %v, want %v", changes, tt.want)
			}
			for i := range tt.want {
				if changes[i] != tt.want[i] {
					t.Errorf("changes[%d] = %q, want %q", i, changes[i], tt.want[i])
				}
			}
		})
	}
}

func TestIgnoreOrder(t *testing.T) {
	a := map[string]any{"Subnets": []any{map[string]any{"Ref": "A"}, map[string]any{"Ref": "B"}}}
	b := map[string]any{"Subnets": []any{map[string]any{"Ref": "B"}, map[string]any{"Ref": "A"}}}

	if got := compareProperties("", a, b, Options{}); len(got) != 1 {
		t.Errorf("ordered comparison = %v, want one change", got)
	}
	if got := compareProperties("", a, b, Options{IgnoreOrder: true}); len(got) != 0 {
		t.Errorf("unordered comparison = %v, want no changes", got)
	}
}

func TestCompareStacks(t *testing.T) {
	before := map[string]*bookworm.Template{
		"Infrastructure-Shared": {Resources: map[string]bookworm.ResourceDef{"Repo": {Type: "AWS::ECR::Repository"}}},
	}
	after := map[string]*bookworm.Template{
		"Infrastructure-Shared": {Resources: map[string]bookworm.ResourceDef{"Repo": {Type: "AWS::ECR::Repository"}}},
		"Infrastructure-IDE":    {Resources: map[string]bookworm.ResourceDef{"IDE": {Type: "AWS::Cloud9::EnvironmentEC2"}}},
	}

	results, err := CompareStacks(before, after, Options{})
	if err != nil {
		t.Fatalf("CompareStacks() error = %v", err)
	}
	if !results["Infrastructure-Shared"].Empty() {
		t.Errorf("Shared should be unchanged")
	}
	if results["Infrastructure-IDE"].Summary.Added != 1 {
		t.Errorf("IDE Added = %d, want 1", results["Infrastructure-IDE"].Summary.Added)
	}
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "a.template.json")
	yamlPath := filepath.Join(dir, "b.template.yaml")

	if err := os.WriteFile(jsonPath, []byte(`{"Resources": {"Queue": {"Type": "AWS::SQS::Queue", "Properties": {"VisibilityTimeout": 120}}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte("Resources:\n  Queue:\n    Type: AWS::SQS::Queue\n    Properties:\n      VisibilityTimeout: 120\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := CompareFiles(jsonPath, yamlPath, Options{})
	if err != nil {
		t.Fatalf("CompareFiles() error = %v", err)
	}
	if !result.Empty() {
		t.Errorf("expected JSON and YAML forms to match, got %+v", result.Diff)
	}

	if _, err := CompareFiles(jsonPath, filepath.Join(dir, "missing.json"), Options{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEqualStringSlices(t *testing.T) {
	tests := []struct {
		a, b []string
		want bool
	}{
		{nil, nil, true},
		{[]string{}, []string{}, true},
		{[]string{"a", "b"}, []string{"a", "b"}, true},
		{[]string{"a"}, []string{"b"}, false},
		{[]string{"a"}, []string{"a", "b"}, false},
	}

	for _, tt := range tests {
		got := equalStringSlices(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("equalStringSlices(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
