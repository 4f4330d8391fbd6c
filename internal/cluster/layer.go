package cluster

import (
	"fmt"
	"path"
	"strings"
)

// layerSignal is one heuristic vote for a layer classification.
type layerSignal struct {
	layer  Layer
	weight float64
	reason string
}

// frontendPackages are external specifiers that strongly indicate UI code.
var frontendPackages = []string{
	"react", "react-dom", "vue", "svelte", "@angular/core", "preact",
	"next", "nuxt", "solid-js", "styled-components", "@emotion/react",
}

// backendPackages are external specifiers that strongly indicate server code.
var backendPackages = []string{
	"express", "fastify", "koa", "@nestjs/common", "hono",
	"pg", "mysql2", "mongoose", "prisma", "@prisma/client",
	"redis", "ioredis", "kafkajs", "amqplib",
}

// pathSignals map directory segments to the layer they usually mean.
var pathSignals = map[string]Layer{
	"components":  LayerFrontend,
	"pages":       LayerFrontend,
	"views":       LayerFrontend,
	"ui":          LayerFrontend,
	"hooks":       LayerFrontend,
	"styles":      LayerFrontend,
	"api":         LayerBackend,
	"server":      LayerBackend,
	"routes":      LayerBackend,
	"controllers": LayerBackend,
	"handlers":    LayerBackend,
	"services":    LayerBackend,
	"models":      LayerBackend,
	"shared":      LayerShared,
	"common":      LayerShared,
	"utils":       LayerShared,
	"lib":         LayerShared,
	"types":       LayerShared,
	"scripts":     LayerInfrastructure,
	"infra":       LayerInfrastructure,
	"deploy":      LayerInfrastructure,
	"docker":      LayerInfrastructure,
	"ci":          LayerInfrastructure,
	"config":      LayerInfrastructure,
}

// ClassifyLayer assigns an architectural layer to a cluster from its member
// paths and external dependencies. Each matching heuristic contributes a
// weighted vote; the layer with the highest total wins. Frontend and backend
// votes of comparable strength mean the folder mixes both worlds: that is
// fullstack when the split is clean-ish, smell when everything fires at once.
// No signals at all defaults to shared with low confidence.
func ClassifyLayer(files []string, externals []string) (Layer, LayerDetection) {
	var signals []layerSignal

	for _, spec := range externals {
		pkg := packageRoot(spec)
		if matchesPackage(pkg, frontendPackages) {
			signals = append(signals, layerSignal{LayerFrontend, 1.0, "import:" + pkg})
		}
		if matchesPackage(pkg, backendPackages) {
			signals = append(signals, layerSignal{LayerBackend, 1.0, "import:" + pkg})
		}
	}

	seenSegs := make(map[string]bool)
	for _, f := range files {
		for _, seg := range strings.Split(path.Dir(f), "/") {
			seg = strings.ToLower(seg)
			if seenSegs[seg] {
				continue
			}
			seenSegs[seg] = true
			if layer, ok := pathSignals[seg]; ok {
				signals = append(signals, layerSignal{layer, 0.5, "path:" + seg})
			}
		}
	}

	if hasGoFiles(files) {
		signals = append(signals, layerSignal{LayerBackend, 0.5, "lang:go"})
	}

	return tally(signals)
}

// tally reduces the votes to a single layer plus a confidence in [0,1].
func tally(signals []layerSignal) (Layer, LayerDetection) {
	if len(signals) == 0 {
		return LayerShared, LayerDetection{Confidence: 0.1}
	}

	totals := make(map[Layer]float64)
	var sum float64
	reasons := make([]string, 0, len(signals))
	for _, s := range signals {
		totals[s.layer] += s.weight
		sum += s.weight
		reasons = append(reasons, s.reason)
	}

	fe, be := totals[LayerFrontend], totals[LayerBackend]
	if fe > 0 && be > 0 {
		// Both worlds present. A near-even strong split is a deliberate
		// fullstack folder; a lopsided mess of everything is a smell.
		ratio := fe / be
		if ratio > 1 {
			ratio = be / fe
		}
		layer := LayerFullstack
		if len(totals) > 2 && ratio < 0.34 {
			layer = LayerSmell
		}
		conf := clamp01((fe + be) / (sum + 1))
		return layer, LayerDetection{Confidence: conf, Signals: reasons}
	}

	best := LayerShared
	bestScore := 0.0
	for _, layer := range KnownLayers {
		if totals[layer] > bestScore {
			best = layer
			bestScore = totals[layer]
		}
	}
	if bestScore == 0 {
		return LayerShared, LayerDetection{Confidence: 0.1, Signals: reasons}
	}

	conf := clamp01(bestScore / (sum + 0.5))
	return best, LayerDetection{Confidence: conf, Signals: reasons}
}

// packageRoot reduces an external specifier to its package name: the first
// segment, or the first two for scoped packages.
func packageRoot(spec string) string {
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

func matchesPackage(pkg string, known []string) bool {
	for _, k := range known {
		if pkg == k {
			return true
		}
	}
	return false
}

func hasGoFiles(files []string) bool {
	for _, f := range files {
		if strings.HasSuffix(f, ".go") {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ValidLayer reports whether l is one of the known layer values.
func ValidLayer(l Layer) bool {
	for _, k := range KnownLayers {
		if l == k {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer for diagnostics.
func (d LayerDetection) String() string {
	return fmt.Sprintf("%.2f (%s)", d.Confidence, strings.Join(d.Signals, ", "))
}
