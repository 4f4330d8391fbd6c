package cluster

import "testing"

func TestClassifyLayer(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		externals []string
		want      Layer
	}{
		{
			name:      "react imports mean frontend",
			files:     []string{"src/widgets/button.tsx"},
			externals: []string{"react", "react-dom"},
			want:      LayerFrontend,
		},
		{
			name:      "express and pg mean backend",
			files:     []string{"src/svc/db.ts"},
			externals: []string{"express", "pg"},
			want:      LayerBackend,
		},
		{
			name:      "scoped frontend package",
			files:     []string{"src/widgets/nav.ts"},
			externals: []string{"@angular/core"},
			want:      LayerFrontend,
		},
		{
			name:  "components path segment",
			files: []string{"src/components/modal.tsx"},
			want:  LayerFrontend,
		},
		{
			name:  "go files lean backend",
			files: []string{"internal/store/store.go"},
			want:  LayerBackend,
		},
		{
			name:  "utils path is shared",
			files: []string{"src/utils/format.ts"},
			want:  LayerShared,
		},
		{
			name:  "scripts path is infrastructure",
			files: []string{"scripts/release.ts"},
			want:  LayerInfrastructure,
		},
		{
			name:      "both worlds evenly is fullstack",
			files:     []string{"src/app/page.tsx", "src/app/route.ts"},
			externals: []string{"react", "express"},
			want:      LayerFullstack,
		},
		{
			name:  "no signals defaults to shared",
			files: []string{"misc/thing.ts"},
			want:  LayerShared,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, det := ClassifyLayer(tt.files, tt.externals)
			if got != tt.want {
				t.Fatalf("layer = %s, want %s (signals: %v)", got, tt.want, det.Signals)
			}
			if det.Confidence < 0 || det.Confidence > 1 {
				t.Fatalf("confidence %f out of range", det.Confidence)
			}
		})
	}
}

func TestClassifyLayerNoSignalsLowConfidence(t *testing.T) {
	layer, det := ClassifyLayer([]string{"misc/x.ts"}, nil)
	if layer != LayerShared {
		t.Fatalf("layer = %s, want shared", layer)
	}
	if det.Confidence > 0.3 {
		t.Fatalf("confidence = %f, want low", det.Confidence)
	}
}

func TestPackageRoot(t *testing.T) {
	tests := []struct{ spec, want string }{
		{"react", "react"},
		{"react-dom/client", "react-dom"},
		{"@nestjs/common/decorators", "@nestjs/common"},
		{"@emotion/react", "@emotion/react"},
	}
	for _, tt := range tests {
		if got := packageRoot(tt.spec); got != tt.want {
			t.Errorf("packageRoot(%q) = %q, want %q", tt.spec, got, tt.want)
		}
	}
}
