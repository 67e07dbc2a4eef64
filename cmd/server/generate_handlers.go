package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gnemet/deckdraft/internal/config"
	"github.com/gnemet/deckdraft/internal/i18n"
	"github.com/gnemet/deckdraft/internal/outline"
	"github.com/gnemet/deckdraft/internal/pptx"
	"github.com/google/uuid"
	"github.com/russross/blackfriday/v2"
	"github.com/sirupsen/logrus"
)

const (
	downloadName = "generated_presentation.pptx"
	pptxMIME     = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

const introMarkdown = `Create a fully formatted **PowerPoint presentation** from bulk text, markdown,
or prose, perfectly matching your chosen template's look and feel.

Paste your content, optionally describe the tone you want, bring your own
LLM API key and a template file. Your key is used for a single generation
call and forgotten afterwards.`

// outlineGenerator is the single seam between the web surface and the
// provider call, so handler tests can stand in a canned generator.
type outlineGenerator interface {
	Generate(ctx context.Context, apiKey, text, guidance string) (*outline.Outline, error)
}

type server struct {
	cfg  *config.Config
	tmpl *template.Template
	gen  outlineGenerator
	log  *logrus.Logger
}

func newServer(cfg *config.Config, tmpl *template.Template, gen outlineGenerator, log *logrus.Logger) *server {
	return &server{cfg: cfg, tmpl: tmpl, gen: gen, log: log}
}

type formPage struct {
	Lang     string
	Title    string
	Intro    template.HTML
	Error    string
	Text     string
	Guidance string
}

func (s *server) renderForm(w http.ResponseWriter, r *http.Request, errMsg, text, guidance string) {
	data := formPage{
		Lang:     i18n.GetLang(r),
		Title:    s.cfg.Application.Name,
		Intro:    template.HTML(blackfriday.Run([]byte(introMarkdown))),
		Error:    errMsg,
		Text:     text,
		Guidance: guidance,
	}
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.log.Errorf("Failed to render form: %v", err)
	}
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, r, "", "", "")
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":   "ok",
		"name":     s.cfg.Application.Name,
		"provider": s.cfg.AI.ActiveProvider,
	})
}

// handleGenerate runs the whole user action in strict sequence: validate
// the form, ask the provider for an outline, fill the template, offer the
// download. Every failure is terminal for the action and comes back as
// inline page text; the server itself keeps serving.
func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	lang := i18n.GetLang(r)

	if err := r.ParseMultipartForm(int64(s.cfg.Application.MaxUploadMB) << 20); err != nil {
		s.renderForm(w, r, i18n.T(lang, "error.missing_template"), "", "")
		return
	}

	text := strings.TrimSpace(r.FormValue("text"))
	guidance := strings.TrimSpace(r.FormValue("guidance"))
	apiKey := strings.TrimSpace(r.FormValue("api_key"))

	if text == "" {
		s.renderForm(w, r, i18n.T(lang, "error.missing_text"), text, guidance)
		return
	}
	if apiKey == "" {
		s.renderForm(w, r, i18n.T(lang, "error.missing_key"), text, guidance)
		return
	}
	file, header, err := r.FormFile("template")
	if err != nil {
		s.renderForm(w, r, i18n.T(lang, "error.missing_template"), text, guidance)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pptx" && ext != ".potx" {
		s.renderForm(w, r, i18n.T(lang, "error.bad_extension"), text, guidance)
		return
	}

	log := s.log.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"provider":   s.cfg.AI.ActiveProvider,
	})
	log.Infof("Generating outline from %d chars of text (template: %s)", len(text), header.Filename)

	generated, err := s.gen.Generate(r.Context(), apiKey, text, guidance)
	if err != nil {
		log.Errorf("Outline generation failed: %v", err)
		s.renderForm(w, r, fmt.Sprintf("%s: %v", i18n.T(lang, "error.generate"), err), text, guidance)
		return
	}

	templateBytes, err := io.ReadAll(file)
	if err != nil {
		log.Errorf("Failed to read uploaded template: %v", err)
		s.renderForm(w, r, fmt.Sprintf("%s: %v", i18n.T(lang, "error.render"), err), text, guidance)
		return
	}

	deck, err := pptx.Open(templateBytes)
	if err != nil {
		log.Errorf("Failed to open template: %v", err)
		s.renderForm(w, r, fmt.Sprintf("%s: %v", i18n.T(lang, "error.render"), err), text, guidance)
		return
	}
	if err := deck.AppendSlides(generated.Slides, s.cfg.Application.LayoutIndex); err != nil {
		log.Errorf("Failed to build slides: %v", err)
		s.renderForm(w, r, fmt.Sprintf("%s: %v", i18n.T(lang, "error.render"), err), text, guidance)
		return
	}
	out, err := deck.Bytes()
	if err != nil {
		log.Errorf("Failed to serialize deck: %v", err)
		s.renderForm(w, r, fmt.Sprintf("%s: %v", i18n.T(lang, "error.render"), err), text, guidance)
		return
	}

	log.Infof("Deck rendered: %d slide(s), %d bytes", len(generated.Slides), len(out))

	w.Header().Set("Content-Type", pptxMIME)
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Write(out)
}
