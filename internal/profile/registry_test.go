package profile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/posecoach/internal/detector"
)

func testProfile(id string) *Profile {
	return &Profile{
		ID:            id,
		Name:          id,
		Normalization: detector.ScaleAnchor,
		Joints: []JointCheck{
			{
				Name:        "left_knee",
				Points:      [3]string{detector.LeftHip, detector.LeftKnee, detector.LeftAnkle},
				TargetAngle: 180,
				Tolerance:   10,
				Weight:      1,
				Feedback:    "Straighten your left leg",
			},
		},
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg, err := NewRegistry(
		[]*Profile{testProfile("warrior_ii"), testProfile("tree")},
		map[string]string{"warrior-2": "warrior_ii", "tree-pose": "tree"},
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		id   string
		want string
	}{
		{"warrior_ii", "warrior_ii"},
		{"warrior-2", "warrior_ii"},
		{"tree-pose", "tree"},
		{"Warrior-II", "warrior_ii"},
		{"  TREE ", "tree"},
		{"Tree_Pose", "tree"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := reg.Lookup(tt.id)
			if err != nil {
				t.Fatalf("Lookup(%q) error = %v", tt.id, err)
			}
			if p.ID != tt.want {
				t.Errorf("Lookup(%q) = %q, want %q", tt.id, p.ID, tt.want)
			}
		})
	}

	t.Run("unknown pose is an explicit error", func(t *testing.T) {
		p, err := reg.Lookup("headstand")
		if !errors.Is(err, ErrUnknownPose) {
			t.Errorf("expected ErrUnknownPose, got %v", err)
		}
		if p != nil {
			t.Error("expected nil profile for unknown pose")
		}
	})

	t.Run("empty id is unknown", func(t *testing.T) {
		if _, err := reg.Lookup(""); !errors.Is(err, ErrUnknownPose) {
			t.Errorf("expected ErrUnknownPose, got %v", err)
		}
	})
}

func TestRegistry_AliasMatchingItsOwnProfile(t *testing.T) {
	reg, err := NewRegistry([]*Profile{testProfile("tree")}, map[string]string{"Tree": "tree"})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if key, ok := reg.Resolve("TREE"); !ok || key != "tree" {
		t.Errorf("Resolve(TREE) = %q, %v, want tree", key, ok)
	}
}

func TestRegistry_ListAndAliases(t *testing.T) {
	reg, err := NewRegistry(
		[]*Profile{testProfile("warrior_ii"), testProfile("chair"), testProfile("tree")},
		map[string]string{"warrior-2": "warrior_ii", "virabhadrasana-ii": "warrior_ii"},
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	var ids []string
	for _, p := range reg.List() {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]string{"chair", "tree", "warrior_ii"}, ids); diff != "" {
		t.Errorf("List() order mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"virabhadrasana-ii", "warrior-2"}, reg.AliasesOf("warrior_ii")); diff != "" {
		t.Errorf("AliasesOf() mismatch (-want +got):\n%s", diff)
	}

	aliases := reg.Aliases()
	aliases["warrior-2"] = "chair"
	if p, _ := reg.Lookup("warrior-2"); p.ID != "warrior_ii" {
		t.Error("Aliases() must return a copy")
	}

	if reg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", reg.Len())
	}
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name     string
		profiles []*Profile
		aliases  map[string]string
		wantErr  string
	}{
		{
			name:     "duplicate profile",
			profiles: []*Profile{testProfile("tree"), testProfile("tree")},
			wantErr:  "duplicate profile",
		},
		{
			name:     "alias to unknown profile",
			profiles: []*Profile{testProfile("tree")},
			aliases:  map[string]string{"chair-pose": "chair"},
			wantErr:  "unknown profile",
		},
		{
			name:     "alias shadows another profile",
			profiles: []*Profile{testProfile("tree"), testProfile("chair")},
			aliases:  map[string]string{"chair": "tree"},
			wantErr:  "shadows",
		},
		{
			name:     "profile ids that differ only in case",
			profiles: []*Profile{testProfile("tree"), testProfile("Tree")},
			wantErr:  "collides with profile",
		},
		{
			name:     "profile ids that differ only in separators",
			profiles: []*Profile{testProfile("warrior_ii"), testProfile("warrior-ii")},
			wantErr:  "collides with profile",
		},
		{
			name:     "alias normalizes to another profile",
			profiles: []*Profile{testProfile("tree"), testProfile("chair")},
			aliases:  map[string]string{"Tree": "chair"},
			wantErr:  "collides with profile",
		},
		{
			name: "zero weight",
			profiles: []*Profile{func() *Profile {
				p := testProfile("tree")
				p.Joints[0].Weight = 0
				return p
			}()},
			wantErr: "weight",
		},
		{
			name: "zero tolerance",
			profiles: []*Profile{func() *Profile {
				p := testProfile("tree")
				p.Joints[0].Tolerance = 0
				return p
			}()},
			wantErr: "tolerance",
		},
		{
			name: "target out of range",
			profiles: []*Profile{func() *Profile {
				p := testProfile("tree")
				p.Joints[0].TargetAngle = 200
				return p
			}()},
			wantErr: "target",
		},
		{
			name: "no joints",
			profiles: []*Profile{func() *Profile {
				p := testProfile("tree")
				p.Joints = nil
				return p
			}()},
			wantErr: "no joint checks",
		},
		{
			name: "bad normalization",
			profiles: []*Profile{func() *Profile {
				p := testProfile("tree")
				p.Normalization = "hips"
				return p
			}()},
			wantErr: "normalization",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.profiles, tt.aliases)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestProfile_KeypointNames(t *testing.T) {
	p := testProfile("tree")
	p.Joints = append(p.Joints, JointCheck{
		Name:   "left_hip",
		Points: [3]string{detector.LeftShoulder, detector.LeftHip, detector.LeftKnee},
	})

	want := []string{detector.LeftHip, detector.LeftKnee, detector.LeftAnkle, detector.LeftShoulder}
	if diff := cmp.Diff(want, p.KeypointNames()); diff != "" {
		t.Errorf("KeypointNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		doc := `
aliases:
  side-plank: side_plank
poses:
  - id: side_plank
    joints:
      - name: body_line
        points: [left_shoulder, left_hip, left_ankle]
        target: 180
        tolerance: 10
        feedback: Lift your hips
`
		profiles, aliases, err := Parse(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if len(profiles) != 1 {
			t.Fatalf("expected 1 profile, got %d", len(profiles))
		}
		p := profiles[0]
		if p.Name != "side_plank" {
			t.Errorf("expected name to default to id, got %q", p.Name)
		}
		if p.Normalization != detector.ScaleAnchor {
			t.Errorf("expected anchor normalization, got %q", p.Normalization)
		}
		if p.Joints[0].Weight != 1 {
			t.Errorf("expected default weight 1, got %f", p.Joints[0].Weight)
		}
		if aliases["side-plank"] != "side_plank" {
			t.Errorf("alias not decoded: %v", aliases)
		}
	})

	t.Run("rejects wrong point count", func(t *testing.T) {
		doc := `
poses:
  - id: broken
    joints:
      - name: knee
        points: [left_hip, left_knee]
        target: 180
        tolerance: 10
`
		if _, _, err := Parse(strings.NewReader(doc)); err == nil {
			t.Error("expected error for two-point joint")
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		doc := `
poses:
  - id: broken
    tolerence: 10
`
		if _, _, err := Parse(strings.NewReader(doc)); err == nil {
			t.Error("expected error for misspelled field")
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		if _, _, err := Parse(strings.NewReader("")); err == nil {
			t.Error("expected error for empty document")
		}
	})

	t.Run("round trips through ToDoc", func(t *testing.T) {
		original := testProfile("tree")
		doc := ToDoc(original)
		back, err := doc.toProfile()
		if err != nil {
			t.Fatalf("toProfile() error = %v", err)
		}
		if diff := cmp.Diff(original, back); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestDefault(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	for _, id := range []string{"mountain", "tree", "warrior_ii", "downward_dog", "chair", "plank", "triangle"} {
		if _, err := reg.Lookup(id); err != nil {
			t.Errorf("built-in profile %q missing: %v", id, err)
		}
	}

	for alias, target := range reg.Aliases() {
		p, err := reg.Lookup(alias)
		if err != nil {
			t.Errorf("alias %q does not resolve: %v", alias, err)
			continue
		}
		if p.ID != target {
			t.Errorf("alias %q resolved to %q, want %q", alias, p.ID, target)
		}
	}
}

func TestWrite(t *testing.T) {
	profiles, aliases, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, profiles, aliases); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, gotAliases, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() of written library error = %v", err)
	}
	if diff := cmp.Diff(profiles, got); diff != "" {
		t.Errorf("profiles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(aliases, gotAliases); diff != "" {
		t.Errorf("aliases mismatch (-want +got):\n%s", diff)
	}
}
