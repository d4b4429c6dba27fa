package doctor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
)

// CheckManifest loads the manifest held by store. A missing manifest is a
// warning when required and produces no result otherwise. The loaded
// document is returned when it parsed.
func CheckManifest(scope config.LayerName, store *manifest.Store, required bool) ([]Result, *manifest.Document) {
	checkName := fmt.Sprintf(messages.DoctorCheckNameManifestFmt, scope)
	doc, err := store.Load()
	switch {
	case errors.Is(err, manifest.ErrManifestNotFound):
		if !required {
			return nil, nil
		}
		return []Result{{
			Status:         StatusWarn,
			CheckName:      checkName,
			Message:        fmt.Sprintf(messages.DoctorManifestMissingFmt, store.Path()),
			Recommendation: messages.DoctorManifestInitRecommend,
		}}, nil
	case err != nil:
		return []Result{{
			Status:         StatusFail,
			CheckName:      checkName,
			Message:        fmt.Sprintf(messages.DoctorManifestInvalidFmt, err),
			Recommendation: messages.DoctorManifestRecommend,
		}}, nil
	}
	return []Result{{
		Status:    StatusOK,
		CheckName: checkName,
		Message:   fmt.Sprintf(messages.DoctorManifestLoadedFmt, store.Path(), doc.Len()),
	}}, doc
}

// CheckLayers reports the merged layer contents and one warning per fragment
// that could not be used.
func CheckLayers(merged config.MergedConfig) []Result {
	results := []Result{{
		Status:    StatusOK,
		CheckName: messages.DoctorCheckNameLayers,
		Message: fmt.Sprintf(messages.DoctorLayersParsedFmt, len(merged.MCPs), len(merged.Skills),
			len(merged.Agents), len(merged.Rules), len(merged.Commands)),
	}}
	for _, w := range merged.Warnings {
		results = append(results, Result{
			Status:         StatusWarn,
			CheckName:      messages.DoctorCheckNameLayers,
			Message:        w.Message,
			Recommendation: w.Fix,
		})
	}
	return results
}

// Options configures a full doctor run.
type Options struct {
	Paths    config.Paths
	Settings config.Settings
	Log      *slog.Logger
}

// Run executes every check in report order: manifests, config layers, then
// plugin takeover state against the global manifest.
func Run(opts Options) []Result {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	results, global := CheckManifest(config.LayerGlobal, manifest.NewStore(opts.Paths.GlobalDir, log), true)
	if opts.Paths.ProjectDir != "" {
		project, _ := CheckManifest(config.LayerProject, manifest.NewStore(opts.Paths.ProjectDir, log), false)
		results = append(results, project...)
	}
	results = append(results, CheckLayers(config.LoadMerged(opts.Paths, log))...)

	if global == nil {
		global = manifest.NewDocument()
	}
	reconciler := NewReconciler(opts.Settings.Plugins, log)
	return append(results, reconciler.CheckTakenOverPlugins(global)...)
}
