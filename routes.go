package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coi-explorer/config"
	"coi-explorer/models"
	"coi-explorer/providers"
	"coi-explorer/services"
	"coi-explorer/storage"
	"coi-explorer/web"
)

// setupRouter verdrahtet Dashboard, JSON-API und Betriebsendpunkte. Der API-Key
// schützt nur die JSON-API, das Dashboard und /healthz bleiben offen.
func setupRouter(cfg *config.Config, db *gorm.DB, graph *services.GraphService, upserter *services.Upserter, ingestor *services.Ingestor, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	setupDashboardRoutes(router, graph, ingestor, log)

	api := router.Group("/", apiKeyAuthMiddleware(cfg))
	api.GET("/metrics", gin.WrapH(promhttp.Handler()))
	setupGraphRoutes(api, graph, log)
	setupPaperRoutes(api, db, upserter, ingestor, log)
	setupStatsRoutes(api, db, log)
	return router
}

func setupDashboardRoutes(router *gin.Engine, graph *services.GraphService, ingestor *services.Ingestor, log *zap.Logger) {
	render := func(c *gin.Context, query, node string, flash *web.Flash) {
		g, err := graph.Load(c.Request.Context())
		if err != nil {
			log.Error("Graph load for dashboard failed", zap.Error(err))
			c.String(http.StatusInternalServerError, "database error")
			return
		}

		data := web.DashboardData{
			Query:   query,
			Graph:   services.Filter(g, query),
			Matches: g.Matches(query),
			Flash:   flash,
		}
		// Details für den gewählten Knoten oder den einzigen Treffer
		if node == "" && len(data.Matches) == 1 {
			node = data.Matches[0].ID
		}
		if node != "" {
			data.Details, _ = services.Details(g, node)
		}

		page, err := web.RenderDashboard(data)
		if err != nil {
			log.Error("Dashboard render failed", zap.Error(err))
			c.String(http.StatusInternalServerError, "render error")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	}

	router.GET("/", func(c *gin.Context) {
		render(c, c.Query("q"), c.Query("node"), nil)
	})

	// Formular-Ingest: das Ergebnis erscheint als Hinweis über dem Graphen
	router.POST("/ingest", func(c *gin.Context) {
		doi := providers.NormalizeDOI(c.PostForm("doi"))
		if doi == "" {
			render(c, "", "", &web.Flash{Message: "Bitte eine DOI angeben."})
			return
		}

		res, err := ingestor.Ingest(c.Request.Context(), doi)
		recordIngest(res, err)
		var flash web.Flash
		switch {
		case err != nil:
			log.Error("Ingest from dashboard failed", zap.String("doi", doi), zap.Error(err))
			flash.Message = fmt.Sprintf("Import von %s fehlgeschlagen.", doi)
		case !res.Found:
			flash.Message = fmt.Sprintf("Zu %s wurde kein Paper gefunden.", doi)
		default:
			flash.OK = true
			flash.Message = fmt.Sprintf("%s über %s importiert: %d Autoren, %d neue Einträge.",
				res.DOI, res.Provider, res.Authors, res.Upsert.Mutations())
		}
		render(c, "", "", &flash)
	})
}

func setupGraphRoutes(rg *gin.RouterGroup, graph *services.GraphService, log *zap.Logger) {
	// Gefilterter Graph, ohne q der vollständige
	rg.GET("/graph", func(c *gin.Context) {
		g, err := graph.Load(c.Request.Context())
		if err != nil {
			log.Error("Graph load failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, services.Filter(g, c.Query("q")))
	})

	rg.GET("/graph/nodes/:id", func(c *gin.Context) {
		g, err := graph.Load(c.Request.Context())
		if err != nil {
			log.Error("Graph load failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		details, ok := services.Details(g, c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
			return
		}
		c.JSON(http.StatusOK, details)
	})
}

// paperSummary ist eine Zeile der Paper-Liste.
type paperSummary struct {
	ID      uint   `json:"id"`
	DOI     string `json:"doi"`
	Authors int64  `json:"authors"`
	Funders int64  `json:"funders"`
}

func setupPaperRoutes(rg *gin.RouterGroup, db *gorm.DB, upserter *services.Upserter, ingestor *services.Ingestor, log *zap.Logger) {
	papers := rg.Group("/papers")

	// Alle Paper mit Anzahl Autoren und Paper-Geldgeber
	papers.GET("/", func(c *gin.Context) {
		var out []paperSummary
		err := db.WithContext(c.Request.Context()).
			Model(&models.Paper{}).
			Select("papers.id, papers.doi, " +
				"(SELECT COUNT(*) FROM paper_authors pa WHERE pa.paper_id = papers.id) AS authors, " +
				"(SELECT COUNT(*) FROM paper_funders pf WHERE pf.paper_id = papers.id) AS funders").
			Order("papers.id").
			Scan(&out).Error
		if err != nil {
			log.Error("Database query for all papers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if out == nil {
			out = []paperSummary{}
		}
		c.JSON(http.StatusOK, out)
	})

	// DOIs enthalten Schrägstriche, deshalb Wildcard-Parameter
	papers.GET("/by-doi/*doi", func(c *gin.Context) {
		doi := providers.NormalizeDOI(strings.TrimPrefix(c.Param("doi"), "/"))
		if doi == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid doi"})
			return
		}
		var paper models.Paper
		err := db.WithContext(c.Request.Context()).
			Preload("Authors.Institutions").
			Preload("Funders").
			Where("doi = ?", doi).
			First(&paper).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
			return
		}
		if err != nil {
			log.Error("DB error loading paper", zap.String("doi", doi), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, paper)
	})

	papers.POST("/ingest", func(c *gin.Context) {
		var req struct {
			DOI string `json:"doi" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		doi := providers.NormalizeDOI(req.DOI)
		if doi == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid doi"})
			return
		}

		res, err := ingestor.Ingest(c.Request.Context(), doi)
		recordIngest(res, err)
		switch {
		case errors.Is(err, services.ErrInvalidRecord):
			c.JSON(http.StatusBadGateway, gin.H{"error": "provider returned an unusable record", "doi": doi})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upsert failed", "doi": doi})
		case !res.Found:
			c.JSON(http.StatusNotFound, gin.H{"error": "paper not found", "doi": doi})
		default:
			c.JSON(http.StatusOK, res)
		}
	})

	papers.POST("/upsert", func(c *gin.Context) {
		var record models.PaperRecord
		if err := c.ShouldBindJSON(&record); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		res, err := upserter.UpsertPaper(c.Request.Context(), record)
		if errors.Is(err, services.ErrInvalidRecord) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			upsertFailuresCounter.Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upsert failed"})
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

func setupStatsRoutes(rg *gin.RouterGroup, db *gorm.DB, log *zap.Logger) {
	rg.GET("/stats", func(c *gin.Context) {
		counts, err := storage.TableCounts(db.WithContext(c.Request.Context()))
		if err != nil {
			log.Error("Table counts failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, counts)
	})
}
