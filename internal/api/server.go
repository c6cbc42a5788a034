package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pearadox/internal/cache"
	"pearadox/internal/config"
	"pearadox/internal/content"
	"pearadox/internal/mailer"
	"pearadox/internal/models"
	"pearadox/internal/outbox"
	"pearadox/internal/sitemap"
	"pearadox/internal/storage"
	"pearadox/internal/util"
	"pearadox/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg           config.Config
	db            *storage.DB
	paperRepo     *storage.PaperRepo
	summaryRepo   *storage.SummaryRepo
	savedRepo     *storage.SavedArticleRepo
	commentRepo   *storage.CommentRepo
	quizRepo      *storage.QuizRepo
	profileRepo   *storage.ProfileRepo
	analyticsRepo *storage.AnalyticsRepo
	categoryRepo  *storage.CategoryRepo
	resolver      *content.Resolver
	// sitemapResolver covers the whole publishable window with the longer
	// sitemap TTL instead of the API page cache.
	sitemapResolver *content.Resolver
	gen             *sitemap.Generator
	mailer          *mailer.Mailer
	outbox          *outbox.Outbox
	// temporal is nil when no worker stack is reachable; sitemap refresh
	// then runs inline in the request.
	temporal tclient.Client
}

// sitemapWindow is how many of the most recent articles a sitemap covers.
const sitemapWindow = 1000

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}

	src, err := sitemap.LoadSources(cfg.SourcesFile)
	if err != nil {
		log.Printf("sitemap sources %s unreadable, using defaults: %v", cfg.SourcesFile, err)
	}

	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Printf("temporal unavailable at %s, sitemap refresh will run inline: %v", cfg.TemporalAddress, err)
		tc = nil
	}

	paperRepo := storage.NewPaperRepo(db)
	summaryRepo := storage.NewSummaryRepo(db)
	return &Server{
		cfg:           cfg,
		db:            db,
		paperRepo:     paperRepo,
		summaryRepo:   summaryRepo,
		savedRepo:     storage.NewSavedArticleRepo(db),
		commentRepo:   storage.NewCommentRepo(db),
		quizRepo:      storage.NewQuizRepo(db),
		profileRepo:   storage.NewProfileRepo(db),
		analyticsRepo: storage.NewAnalyticsRepo(db),
		categoryRepo:  storage.NewCategoryRepo(db),
		resolver: content.NewResolver(paperRepo, summaryRepo,
			cache.New(time.Duration(cfg.CacheTTLMinutes)*time.Minute, nil),
			cfg.PageSize, cfg.SpotlightPool),
		sitemapResolver: content.NewResolver(paperRepo, summaryRepo,
			cache.New(time.Duration(cfg.SitemapTTLMinutes)*time.Minute, nil),
			sitemapWindow, cfg.SpotlightPool),
		gen:      sitemap.NewGenerator(cfg.SiteBaseURL, src),
		mailer:   mailer.New(cfg),
		outbox:   outbox.New(5 * time.Second),
		temporal: tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/articles", s.handleArticles)
	mux.HandleFunc("/api/articles/", s.handleArticlesScoped)
	mux.HandleFunc("/api/spotlight-article", s.handleSpotlight)
	mux.HandleFunc("/api/sitemap", s.handleSitemap)
	mux.HandleFunc("/api/saved-articles", s.handleSavedArticles)
	mux.HandleFunc("/api/comments/", s.handleCommentsScoped)
	mux.HandleFunc("/api/quiz/submissions", s.handleQuizSubmissions)
	mux.HandleFunc("/api/quiz/tokens", s.handleQuizTokens)
	mux.HandleFunc("/api/quiz/papers", s.handleQuizPapers)
	mux.HandleFunc("/api/profiles", s.handleProfiles)
	mux.HandleFunc("/api/profiles/", s.handleProfilesScoped)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/categories/", s.handleCategoriesScoped)
	mux.HandleFunc("/api/contact", s.handleContact)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func skillLevelFrom(r *http.Request) (models.SkillLevel, error) {
	return models.ParseSkillLevel(r.URL.Query().Get("skillLevel"))
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	level, err := skillLevelFrom(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	articles, err := s.resolver.Resolve(r.Context(), level, page)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles, "page": page})
}

func (s *Server) handleArticlesScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/articles/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleArticleBySlug(w, r, parts[0])
		return
	}

	paperID := parts[0]
	if len(parts) == 2 && parts[1] == "comments" {
		switch r.Method {
		case http.MethodGet:
			s.handleListComments(w, r, paperID)
		case http.MethodPost:
			s.handleCreateComment(w, r, paperID)
		default:
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		}
		return
	}
	if len(parts) == 3 && parts[1] == "comments" && parts[2] == "count" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		n, err := s.commentRepo.CountByPaper(r.Context(), paperID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": n})
		return
	}
	if len(parts) == 2 && parts[1] == "views" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleRecordView(w, r, paperID)
		return
	}

	writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
}

func (s *Server) handleArticleBySlug(w http.ResponseWriter, r *http.Request, slug string) {
	level, err := skillLevelFrom(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	article, err := s.resolver.ResolveBySlug(r.Context(), level, slug)
	if errors.Is(err, util.ErrArticleNotFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": article})
}

func (s *Server) handleSpotlight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	level, err := skillLevelFrom(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	article, err := s.resolver.Spotlight(r.Context(), level, time.Now().UTC())
	if errors.Is(err, util.ErrNoSpotlightPapers) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	// The pick is stable for a UTC day, so edges may cache it for the day
	// and serve stale while revalidating.
	w.Header().Set("Cache-Control", "s-maxage=86400, stale-while-revalidate=3600")
	writeJSON(w, http.StatusOK, map[string]any{"article": article})
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	if s.temporal != nil {
		we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
			ID:                    "sitemap-refresh",
			TaskQueue:             s.cfg.TemporalTaskQueue,
			WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		}, workflows.SitemapRefreshWorkflow, workflows.SitemapRefreshInput{
			SkillLevel: string(models.SkillBeginner),
			Reason:     "api",
		})
		if err == nil {
			var res workflows.SitemapRefreshResult
			err = we.Get(r.Context(), &res)
			if err == nil {
				writeJSON(w, http.StatusOK, map[string]any{
					"success":  true,
					"message":  "sitemap regenerated",
					"fallback": res.Fallback,
					"stats":    res.Stats,
				})
				return
			}
		}
		log.Printf("sitemap workflow unavailable, regenerating inline: %v", err)
	}

	out, err := s.generateSitemapInline(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "sitemap generation failed",
			"details": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "sitemap regenerated",
		"fallback": out.Fallback,
		"stats":    out.Stats,
	})
}

// generateSitemapInline is the workerless path: resolve, render, write. A
// resolve failure degrades to the fallback sitemap; only a write failure is
// an error.
func (s *Server) generateSitemapInline(ctx context.Context) (sitemap.Output, error) {
	now := time.Now().UTC()
	var out sitemap.Output
	articles, err := s.sitemapResolver.Resolve(ctx, models.SkillBeginner, 0)
	if err != nil {
		log.Printf("sitemap article load failed, writing fallback: %v", err)
		out = s.gen.BuildFallback(now)
	} else {
		out = s.gen.Build(articles, now)
	}

	files := map[string]string{
		"sitemap.xml":      out.SitemapXML,
		"sitemap-news.xml": out.NewsXML,
		"robots.txt":       out.RobotsTxt,
	}
	for name, body := range files {
		if err := util.WriteTextAtomic(filepath.Join(s.cfg.PublicDir, name), body); err != nil {
			return sitemap.Output{}, fmt.Errorf("write %s: %w", name, err)
		}
	}
	return out, nil
}

func (s *Server) handleSavedArticles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID := strings.TrimSpace(r.URL.Query().Get("userId"))
		if userID == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("userId is required"))
			return
		}
		level, err := skillLevelFrom(r)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		saved, err := s.savedRepo.ListByUser(r.Context(), userID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		ids := make([]string, 0, len(saved))
		for _, sa := range saved {
			ids = append(ids, sa.PaperID)
		}
		articles, err := s.resolver.ResolveByIDs(r.Context(), level, ids)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"saved": saved, "articles": articles})
	case http.MethodPost, http.MethodDelete:
		var req struct {
			UserID  string `json:"user_id"`
			PaperID string `json:"paper_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.PaperID) == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("user_id and paper_id are required"))
			return
		}
		if r.Method == http.MethodPost {
			if err := s.savedRepo.Save(r.Context(), req.UserID, req.PaperID); err != nil {
				writeErr(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"saved": true})
			return
		}
		if err := s.savedRepo.Remove(r.Context(), req.UserID, req.PaperID); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"removed": true})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request, paperID string) {
	comments, err := s.commentRepo.ListByPaper(r.Context(), paperID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request, paperID string) {
	var req struct {
		UserID string `json:"user_id"`
		Body   string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if strings.TrimSpace(req.UserID) == "" || req.Body == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("user_id and body are required"))
		return
	}
	c := models.Comment{
		ID:      uuid.NewString(),
		PaperID: paperID,
		UserID:  req.UserID,
		Body:    req.Body,
	}
	err := s.commentRepo.Create(r.Context(), c)
	if errors.Is(err, util.ErrCommentTooLong) {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"comment": c})
}

func (s *Server) handleCommentsScoped(w http.ResponseWriter, r *http.Request) {
	commentID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/comments/"), "/")
	if commentID == "" || strings.Contains(commentID, "/") {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req struct {
			UserID string `json:"user_id"`
			Body   string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.Body = strings.TrimSpace(req.Body)
		if strings.TrimSpace(req.UserID) == "" || req.Body == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("user_id and body are required"))
			return
		}
		err := s.commentRepo.Update(r.Context(), commentID, req.UserID, req.Body)
		switch {
		case errors.Is(err, util.ErrCommentTooLong):
			writeErr(w, http.StatusBadRequest, err)
		case errors.Is(err, util.ErrNotCommentAuthor):
			writeErr(w, http.StatusForbidden, err)
		case err != nil:
			writeErr(w, http.StatusInternalServerError, err)
		default:
			writeJSON(w, http.StatusOK, map[string]any{"updated": true})
		}
	case http.MethodDelete:
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		if strings.TrimSpace(req.UserID) == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("user_id is required"))
			return
		}
		err := s.commentRepo.SoftDelete(r.Context(), commentID, req.UserID)
		switch {
		case errors.Is(err, util.ErrNotCommentAuthor):
			writeErr(w, http.StatusForbidden, err)
		case err != nil:
			writeErr(w, http.StatusInternalServerError, err)
		default:
			writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
		}
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request, paperID string) {
	var req struct {
		UserID      string `json:"user_id"`
		AnonymousID string `json:"anonymous_id"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	ev := models.ViewEvent{
		PaperID:     paperID,
		UserID:      strings.TrimSpace(req.UserID),
		AnonymousID: strings.TrimSpace(req.AnonymousID),
	}
	s.outbox.Record("view", func(ctx context.Context) error {
		return s.analyticsRepo.InsertView(ctx, ev)
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"recorded": true})
}

func (s *Server) handleQuizSubmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		UserID    string `json:"user_id"`
		PaperID   string `json:"paper_id"`
		IsCorrect bool   `json:"is_correct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.PaperID) == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("user_id and paper_id are required"))
		return
	}
	sub, first, err := s.quizRepo.Record(r.Context(), req.UserID, req.PaperID, req.IsCorrect)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submission": sub, "first_attempt": first})
}

func (s *Server) handleQuizTokens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("userId is required"))
		return
	}
	n, err := s.quizRepo.CountCorrect(r.Context(), userID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": n})
}

func (s *Server) handleQuizPapers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	ids, err := s.quizRepo.ListPapersWithQuizzes(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paper_ids": ids})
}

func decodeProfile(r *http.Request) (models.Profile, error) {
	var req struct {
		UserID            string `json:"user_id"`
		Name              string `json:"name"`
		Title             string `json:"title"`
		Institution       string `json:"institution"`
		ResearchInterests string `json:"research_interests"`
		SkillLevel        string `json:"skill_level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return models.Profile{}, fmt.Errorf("invalid json: %w", err)
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Name) == "" {
		return models.Profile{}, fmt.Errorf("user_id and name are required")
	}
	level, err := models.ParseSkillLevel(req.SkillLevel)
	if err != nil {
		return models.Profile{}, err
	}
	return models.Profile{
		UserID:            strings.TrimSpace(req.UserID),
		Name:              strings.TrimSpace(req.Name),
		Title:             strings.TrimSpace(req.Title),
		Institution:       strings.TrimSpace(req.Institution),
		ResearchInterests: strings.TrimSpace(req.ResearchInterests),
		SkillLevel:        level,
	}, nil
}

// handleProfiles bootstraps a profile right after signup. The insert can
// race email verification, so a failure journals the intended payload for a
// later reconcile instead of surfacing an error.
func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	p, err := decodeProfile(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.profileRepo.Create(r.Context(), p); err != nil {
		log.Printf("profile create for %s failed, journaling: %v", p.UserID, err)
		if jerr := s.profileRepo.SavePending(r.Context(), p); jerr != nil {
			writeErr(w, http.StatusInternalServerError, jerr)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"pending": true,
			"message": "profile journaled for reconcile",
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"profile": p})
}

func (s *Server) handleProfilesScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/profiles/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	userID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		p, err := s.profileRepo.Get(r.Context(), userID)
		if errors.Is(err, util.ErrProfileNotFound) {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": p})
		return
	}

	if len(parts) == 2 && parts[1] == "reconcile" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleReconcileProfile(w, r, userID)
		return
	}

	writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
}

// handleReconcileProfile replays a journaled profile on a later session. No
// journal row is a normal outcome, not an error.
func (s *Server) handleReconcileProfile(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := s.profileRepo.TakePending(r.Context(), userID)
	if errors.Is(err, util.ErrNoPendingProfile) {
		writeJSON(w, http.StatusOK, map[string]any{"reconciled": false})
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.profileRepo.Upsert(r.Context(), p); err != nil {
		// Put the journal back so the next sign-in can retry.
		if jerr := s.profileRepo.SavePending(r.Context(), p); jerr != nil {
			log.Printf("re-journal profile for %s failed: %v", userID, jerr)
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reconciled": true, "profile": p})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	categories, err := s.categoryRepo.List(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Server) handleCategoriesScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/categories/"), "/")
	if raw == "" || strings.Contains(raw, "/") {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	// Clients may pass the paper's raw categories_name list; the lookup is
	// always on its primary code.
	code := content.PrimaryCategory(raw)
	if code == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	name, err := s.categoryRepo.DisplayName(r.Context(), code)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"code": code, "name": name})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req mailer.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if err := req.Validate(); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.mailer.Send(r.Context(), req)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "message sent", "id": id})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "PX-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "PX-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "PX-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "PX-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "PX-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusForbidden:
		code = "PX-API-4003"
		msg = "You are not allowed to modify this resource."
	case status == http.StatusNotFound:
		code = "PX-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "PX-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusBadGateway:
		code = "PX-API-5020"
		msg = "Upstream provider unavailable. Retry shortly."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case errors.Is(err, util.ErrCommentTooLong):
			msg = fmt.Sprintf("Comments are limited to %d characters.", models.MaxCommentLength)
		case errors.Is(err, util.ErrNotCommentAuthor):
			msg = "Only the comment author can modify it."
		case errors.Is(err, util.ErrArticleNotFound):
			msg = "Article was not found."
		case errors.Is(err, util.ErrProfileNotFound):
			msg = "Profile was not found."
		case errors.Is(err, util.ErrNoSpotlightPapers):
			msg = "No spotlight article is available yet."
		case strings.Contains(raw, "unknown skill level"):
			msg = "skillLevel must be Beginner or Intermediate."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(raw, "required"):
			msg = upperFirst(err.Error()) + "."
		case strings.Contains(raw, "invalid email"):
			msg = "A valid email address is required."
		}
	}

	return apiError{Code: code, Message: msg}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
