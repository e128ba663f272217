package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/neurolens/internal/assets"
	"github.com/me/neurolens/internal/dashboard"
	"github.com/me/neurolens/internal/progress"
	"github.com/me/neurolens/internal/session"
	"github.com/me/neurolens/internal/signal"
	"github.com/me/neurolens/pkg/model"
)

// Page texts.
const (
	UploadPrompt = "Upload an EEG file to begin processing."
	LoggedOut    = "Logged out. Return to the Login page."
	DemoNotice   = "Demo login. For production, implement proper authentication (OAuth, SSO, secure session tokens)."
)

// HandleLogin renders the login page.
func (ui *UI) HandleLogin(w http.ResponseWriter, r *http.Request) {
	// If already logged in, redirect to the dashboard.
	if session.FromContext(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := ui.base(r, "Login - OpenNeuroLens")
	if err := ui.branding(r.Context(), data); err != nil {
		ui.renderError(w, "Failed to check branding assets", err)
		return
	}
	data["Notice"] = DemoNotice
	ui.render(w, http.StatusOK, "login", data)
}

// HandleLoginPost processes the login form. The submitted values are
// compared as typed, without trimming.
func (ui *UI) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ui.render(w, http.StatusBadRequest, "login", ui.loginFailure(r, []model.Banner{model.Error("Invalid request")}))
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	sess := session.FromContext(r.Context())
	res := ui.gate.Login(sess, username, password)
	if err := ui.sessions.Save(r.Context(), w, sess); err != nil {
		ui.renderError(w, "Session creation failed", err)
		return
	}

	if !res.Authenticated {
		ui.logger.Warn("login failed", "username", username, "attempts", res.Attempts)
		ui.render(w, http.StatusUnauthorized, "login", ui.loginFailure(r, res.Banners))
		return
	}

	ui.logger.Info("user logged in", "username", username, "attempts", res.Attempts)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (ui *UI) loginFailure(r *http.Request, banners []model.Banner) map[string]any {
	data := ui.base(r, "Login - OpenNeuroLens")
	if err := ui.branding(r.Context(), data); err != nil {
		ui.logger.Warn("branding check failed", "error", err)
	}
	data["Banners"] = banners
	data["Notice"] = DemoNotice
	return data
}

// HandleLogout resets the session and confirms it.
func (ui *UI) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	username := sess.Username
	ui.gate.Logout(sess)
	if sess.ID != "" {
		if err := ui.sessions.Save(r.Context(), w, sess); err != nil {
			ui.renderError(w, "Logout failed", err)
			return
		}
	}
	ui.logger.Info("user logged out", "username", username)

	data := ui.base(r, "Logged out - OpenNeuroLens")
	data["Banners"] = []model.Banner{model.Success(LoggedOut)}
	ui.render(w, http.StatusOK, "logout", data)
}

// HandleIndex renders the main page: upload form, configuration panel and
// the example browser selected by ?dataset=.
func (ui *UI) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data, status, err := ui.indexData(r)
	if err != nil {
		ui.renderError(w, "Failed to load dashboard", err)
		return
	}
	ui.render(w, status, "index", data)
}

func (ui *UI) indexData(r *http.Request) (map[string]any, int, error) {
	ctx := r.Context()
	status := http.StatusOK
	data := ui.base(r, "Welcome to OpenNeuroLens (Demo)")
	if err := ui.branding(ctx, data); err != nil {
		return nil, 0, err
	}

	latest, err := ui.dashboard.LatestRun(ctx, session.FromContext(ctx).ID)
	if err != nil {
		return nil, 0, err
	}
	data["LatestRun"] = latest
	if latest == nil {
		data["UploadBanners"] = []model.Banner{model.Info(UploadPrompt)}
	}
	data["Accept"] = acceptList()
	if ui.page.ConfigPanel {
		data["ConfigGroups"] = dashboard.ConfigGroups
	}

	label := model.DatasetLabel(r.URL.Query().Get("dataset"))
	data["Datasets"] = ui.dashboard.Datasets()
	data["Selected"] = label
	view, err := ui.dashboard.Browse(ctx, label)
	switch {
	case errors.Is(err, dashboard.ErrUnknownDataset):
		status = http.StatusNotFound
		data["ExampleBanners"] = []model.Banner{model.Error(fmt.Sprintf("Unknown dataset: %s", label))}
	case err != nil:
		return nil, 0, err
	default:
		data["Example"] = view
	}
	return data, status, nil
}

// branding adds the logo and background, or the banners for missing ones.
func (ui *UI) branding(ctx context.Context, data map[string]any) error {
	store := ui.dashboard.Assets()
	var banners []model.Banner
	if ui.page.Logo {
		ok, err := assets.Exists(ctx, store, assets.LogoFile)
		if err != nil {
			return err
		}
		if ok {
			data["Logo"] = assets.LogoFile
		} else {
			banners = append(banners, model.Error("Image not found: "+assets.LogoFile))
		}
	}
	if ui.page.Background {
		ok, err := assets.Exists(ctx, store, assets.BackgroundFile)
		if err != nil {
			return err
		}
		if ok {
			data["Background"] = assets.BackgroundFile
		} else {
			banners = append(banners, model.Warning("Background image not found at: "+assets.BackgroundFile))
		}
	}
	data["BrandingBanners"] = banners
	return nil
}

// HandleUpload accepts the upload form and redirects to the new run.
func (ui *UI) HandleUpload(w http.ResponseWriter, r *http.Request) {
	name, err := dashboard.UploadFileName(r)
	if err == nil {
		_, err = dashboard.ValidateUpload(name)
	}
	if err != nil {
		ui.renderUploadError(w, r, err)
		return
	}

	sess := session.FromContext(r.Context())
	if sess.ID == "" {
		if err := ui.sessions.Save(r.Context(), w, sess); err != nil {
			ui.renderError(w, "Session creation failed", err)
			return
		}
	}
	run, err := ui.dashboard.Upload(r.Context(), sess.ID, name)
	if err != nil {
		ui.renderError(w, "Upload failed", err)
		return
	}
	http.Redirect(w, r, "/runs/"+run.ID, http.StatusSeeOther)
}

func (ui *UI) renderUploadError(w http.ResponseWriter, r *http.Request, uploadErr error) {
	data, _, err := ui.indexData(r)
	if err != nil {
		ui.renderError(w, "Failed to load dashboard", err)
		return
	}
	data["UploadBanners"] = []model.Banner{model.Error(uploadErr.Error())}
	ui.render(w, http.StatusBadRequest, "index", data)
}

// HandleRun renders a run with its Process control.
func (ui *UI) HandleRun(w http.ResponseWriter, r *http.Request) {
	run, ok := ui.lookupRun(w, r)
	if !ok {
		return
	}
	data := ui.runData(r, run)
	if run.State == model.RunStateCompleted {
		view, err := ui.dashboard.Results(r.Context())
		if err != nil {
			ui.renderError(w, "Failed to load results", err)
			return
		}
		data["Results"] = view
	}
	ui.render(w, http.StatusOK, "run", data)
}

// HandleProcess runs the whole progress loop inside the request, then
// renders the results. It serves clients without JavaScript.
func (ui *UI) HandleProcess(w http.ResponseWriter, r *http.Request) {
	run, ok := ui.lookupRun(w, r)
	if !ok {
		return
	}

	run, err := ui.dashboard.Process(r.Context(), run, func(progress.Update) error { return nil })
	if errors.Is(err, dashboard.ErrRunActive) {
		run.State = model.RunStateRunning
		data := ui.runData(r, run)
		data["Banners"] = append(data["Banners"].([]model.Banner),
			model.Warning(fmt.Sprintf("Run is already %s.", model.RunStateRunning)))
		ui.render(w, http.StatusConflict, "run", data)
		return
	}
	if err != nil {
		if r.Context().Err() != nil {
			return // client went away
		}
		ui.renderError(w, "Processing failed", err)
		return
	}

	view, err := ui.dashboard.Results(r.Context())
	if err != nil {
		ui.renderError(w, "Failed to load results", err)
		return
	}
	data := ui.runData(r, run)
	data["Results"] = view
	ui.render(w, http.StatusOK, "run", data)
}

// HandleResults renders the results fragment of a completed run.
func (ui *UI) HandleResults(w http.ResponseWriter, r *http.Request) {
	run, ok := ui.lookupRun(w, r)
	if !ok {
		return
	}
	if run.State != model.RunStateCompleted {
		ui.renderPartial(w, http.StatusConflict, "notice", map[string]any{
			"Banners": []model.Banner{model.Warning("Results are shown once processing completes.")},
		})
		return
	}
	view, err := ui.dashboard.Results(r.Context())
	if err != nil {
		ui.renderError(w, "Failed to load results", err)
		return
	}
	ui.renderPartial(w, http.StatusOK, "results_view", map[string]any{"Results": view})
}

func (ui *UI) runData(r *http.Request, run *model.Run) map[string]any {
	data := ui.base(r, run.FileName+" - OpenNeuroLens")
	data["Run"] = run
	data["Banners"] = []model.Banner{model.Success("Uploaded file: " + run.FileName)}
	switch run.State {
	case model.RunStateCompleted:
		data["StatusText"] = progress.CompleteText
	case model.RunStateRunning, model.RunStateFailed:
		data["StatusText"] = progress.StatusText(run.Progress)
	}
	return data
}

func (ui *UI) lookupRun(w http.ResponseWriter, r *http.Request) (*model.Run, bool) {
	id := chi.URLParam(r, "id")
	run, err := ui.dashboard.Run(r.Context(), session.FromContext(r.Context()).ID, id)
	if errors.Is(err, dashboard.ErrRunNotFound) {
		ui.renderNotFound(w, fmt.Sprintf("Run '%s' not found", id))
		return nil, false
	}
	if err != nil {
		ui.renderError(w, "Failed to load run", err)
		return nil, false
	}
	return run, true
}

// figureView is one toggle of the signal explorer.
type figureView struct {
	N       int
	Title   string
	Checked bool
}

// HandleSignals renders the synthetic signal explorer:
// ?label=EEG1&fig=1&fig=3&table=1
func (ui *UI) HandleSignals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	label := model.DatasetLabel(q.Get("label"))
	if label.IsEmpty() {
		label = signal.Labels()[0]
	}
	set, err := signal.Generate(label)
	if err != nil {
		ui.renderNotFound(w, fmt.Sprintf("Unknown signal label: %s", label))
		return
	}

	checked := map[int]bool{}
	for _, v := range q["fig"] {
		if n, err := strconv.Atoi(v); err == nil {
			checked[n] = true
		}
	}
	figures := make([]figureView, 0, signal.Figures)
	for n := 1; n <= signal.Figures; n++ {
		figures = append(figures, figureView{N: n, Title: signal.Title(set, n), Checked: checked[n]})
	}

	data := ui.base(r, "Signal Explorer - OpenNeuroLens")
	data["Labels"] = signal.Labels()
	data["Label"] = label
	data["Banners"] = []model.Banner{model.Success(fmt.Sprintf("%s selected", label))}
	data["Figures"] = figures
	if q.Get("table") != "" {
		data["ShowTable"] = true
		data["Table"] = signal.DemoWorkbook()
	}
	ui.render(w, http.StatusOK, "signals", data)
}

// HandleSignalPlot renders one synthetic figure as PNG.
func (ui *UI) HandleSignalPlot(w http.ResponseWriter, r *http.Request) {
	label := model.DatasetLabel(chi.URLParam(r, "label"))
	n, err := strconv.Atoi(chi.URLParam(r, "fig"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	set, err := signal.Generate(label)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if _, ok := set.Figure(n); !ok {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := signal.RenderPNG(&buf, set, n); err != nil {
		ui.logger.Error("render plot", "label", label, "figure", n, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	buf.WriteTo(w)
}

// HandleAsset streams a file from the asset store.
func (ui *UI) HandleAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	store := ui.dashboard.Assets()

	info, err := store.Stat(r.Context(), name)
	if err != nil || info.IsDir {
		if err != nil && !errors.Is(err, assets.ErrNotExist) {
			ui.logger.Warn("asset stat failed", "name", name, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	rc, err := store.Open(r.Context(), name)
	if err != nil {
		ui.logger.Warn("asset open failed", "name", name, "error", err)
		http.NotFound(w, r)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(path.Ext(info.Name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	io.Copy(w, rc)
}

// acceptList is the file input's accept attribute.
func acceptList() string {
	out := ""
	for i, ext := range dashboard.AllowedExtensions {
		if i > 0 {
			out += ","
		}
		out += "." + ext
	}
	return out
}
