package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JLinaresBeltran/Juridica-News-sub000/config"
	"github.com/JLinaresBeltran/Juridica-News-sub000/curation"
	"github.com/JLinaresBeltran/Juridica-News-sub000/models"
	"github.com/JLinaresBeltran/Juridica-News-sub000/providers"
	"github.com/JLinaresBeltran/Juridica-News-sub000/providers/corteconstitucional"
	"github.com/JLinaresBeltran/Juridica-News-sub000/services"
	"github.com/JLinaresBeltran/Juridica-News-sub000/storage"
)

var (
	newDocumentsCounter prometheus.Counter
	curatedCounter      *prometheus.CounterVec
)

func init() {
	newDocumentsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "new_documents_added_total",
			Help: "Total number of new documents added to the database.",
		},
	)
	curatedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_curated_total",
			Help: "Total number of curation actions applied to documents.",
		},
		[]string{"action"},
	)
	prometheus.MustRegister(newDocumentsCounter, curatedCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Error cargando la configuración", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("No se pudo conectar a la base de datos", zap.Error(err))
	}
	logging.Info("Conexión a la base de datos establecida.")

	if gin.Mode() == gin.DebugMode {
		logging.Info("Modo debug detectado. Eliminando tablas para arranque limpio.")
		db.Migrator().DropTable(&models.Document{}, &models.Article{}, &models.Source{})
	}
	logging.Info("Ejecutando auto-migración de la base...")
	db.AutoMigrate(&models.Document{}, &models.Article{}, &models.Source{})

	seedDefaultSources(db, logging)

	// Providers de scraping
	enabledNames := strings.Split(cfg.EnabledSources, ",")
	var enabledProviders []providers.Provider
	for _, name := range enabledNames {
		switch strings.TrimSpace(name) {
		case corteconstitucional.SourceName:
			enabledProviders = append(enabledProviders, corteconstitucional.NewFetcher(cfg, logging))
		default:
			logging.Warn("Fuente desconocida en la configuración", zap.String("source_name", name))
		}
	}
	if len(enabledProviders) == 0 {
		logging.Fatal("Ninguna fuente válida habilitada. Revise ENABLED_SOURCES en .env")
	}
	logging.Info("Fuentes activas cargadas", zap.Strings("sources", enabledNames))

	// Servicios
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("No se pudo crear el cliente S3", zap.Error(err))
	}
	extraction := services.NewExtractionService(cfg, db, s3Client, logging, enabledProviders)
	aiService := services.NewAIService(db, services.NewAIClient(cfg), logging)

	// Escritorio de curación: estado en proceso con snapshot en disco,
	// sincronizado contra la base a través del adaptador directo.
	snapshots, err := curation.NewFileSnapshotStore(cfg.SnapshotDir, cfg.SnapshotMaxBytes)
	if err != nil {
		logging.Fatal("No se pudo crear el almacén de snapshots", zap.Error(err))
	}
	docAPI := &dbDocumentAPI{db: db, log: logging}
	bus := curation.NewBus()
	store := curation.NewStore(docAPI, snapshots, bus, logging)
	if err := store.Load(); err != nil {
		logging.Warn("No se pudo restaurar el snapshot de curación", zap.Error(err))
	}

	// Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "juridica-news"})
	})

	setupDocumentRoutes(router, db, docAPI, logging)
	setupArticleRoutes(router, db, logging)
	setupSourceRoutes(router, db, logging)
	setupScrapingRoutes(router, extraction)
	setupAIRoutes(router, aiService, logging)
	setupCurationRoutes(router, store, db, logging)

	// Cron de extracción periódica
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Ejecutando extracción programada...")
		count, err := extraction.RunAllSources(context.Background())
		if err != nil {
			logging.Error("Extracción programada fallida", zap.Error(err))
		} else {
			logging.Info("Extracción programada completada", zap.Int("new_documents", count))
			newDocumentsCounter.Add(float64(count))
		}
	})
	cronScheduler.Start()

	logging.Info("Iniciando servidor", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("El servidor terminó con error", zap.Error(err))
	}
}

func setupDocumentRoutes(router *gin.Engine, db *gorm.DB, docAPI *dbDocumentAPI, log *zap.Logger) {
	rg := router.Group("/documents")

	// Listado simple, opcionalmente filtrado por estado
	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.Document{})
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		var docs []models.Document
		if err := query.Order("publication_date desc").Find(&docs).Error; err != nil {
			log.Error("Consulta de documentos fallida", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, docs)
	})

	// Consultas complejas gobernadas por el cuerpo
	rg.POST("/query", func(c *gin.Context) {
		type DocumentQuery struct {
			Source           string `json:"source"`
			Status           string `json:"status"`
			Type             string `json:"type"`
			AIAnalysisStatus string `json:"ai_analysis_status"`
			CloudStored      *bool  `json:"cloud_stored"`
			Limit            int    `json:"limit"`
		}

		var req DocumentQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Document{})
		if req.Source != "" {
			query = query.Where("source = ?", req.Source)
		}
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
		if req.Type != "" {
			query = query.Where("type = ?", req.Type)
		}
		if req.AIAnalysisStatus != "" {
			query = query.Where("ai_analysis_status = ?", req.AIAnalysisStatus)
		}
		if req.CloudStored != nil {
			query = query.Where("cloud_stored = ?", *req.CloudStored)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var docs []models.Document
		if err := query.Order("publication_date desc, created_at desc").Find(&docs).Error; err != nil {
			log.Error("Consulta de documentos fallida", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, docs)
	})

	// Los ids de providencia contienen "/" (ej. T-123/25); los clientes
	// deben enviarlos URL-codificados.
	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var doc models.Document
		if err := db.First(&doc, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			log.Error("Error de base consultando documento", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, doc)
	})

	// Actualización parcial: solo los campos enviados
	rg.PUT("/:id", func(c *gin.Context) {
		id := c.Param("id")

		var doc models.Document
		if err := db.First(&doc, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			log.Error("Error de base en PUT de documento", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var updateData map[string]interface{}
		if err := c.ShouldBindJSON(&updateData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if err := db.Model(&doc).Updates(updateData).Error; err != nil {
			log.Error("Error actualizando documento", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update document"})
			return
		}
		c.JSON(http.StatusOK, doc)
	})

	// Acción de curación server-side (approve/reject, con datos IA y de artículo)
	rg.POST("/:id/curate", func(c *gin.Context) {
		id := c.Param("id")

		var req curation.CurateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if err := docAPI.Curate(c.Request.Context(), id, req); err != nil {
			log.Error("Acción de curación fallida", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		curatedCounter.WithLabelValues(req.Action).Inc()
		c.JSON(http.StatusOK, gin.H{"message": "curation applied", "action": req.Action})
	})
}

func setupArticleRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/articles")

	rg.POST("/", func(c *gin.Context) {
		var article models.Article
		if err := c.ShouldBindJSON(&article); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if article.Title == "" || article.DocumentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title and document_id are required"})
			return
		}
		if article.ID == "" {
			article.ID = uuid.NewString()
		}
		if article.Slug == "" {
			article.Slug = services.Slugify(article.Title)
		}
		if article.ReadingTime == 0 {
			article.ReadingTime = services.ReadingTime(article.Content)
		}
		if err := db.Create(&article).Error; err != nil {
			log.Error("No se pudo crear el artículo", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create article"})
			return
		}
		log.Info("Artículo creado", zap.String("id", article.ID), zap.String("title", article.Title))
		c.JSON(http.StatusCreated, article)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var article models.Article
		if err := db.First(&article, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, article)
	})

	rg.PUT("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var article models.Article
		if err := db.First(&article, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var updateData map[string]interface{}
		if err := c.ShouldBindJSON(&updateData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if title, ok := updateData["title"].(string); ok && title != "" {
			updateData["slug"] = services.Slugify(title)
		}
		if content, ok := updateData["content"].(string); ok && content != "" {
			updateData["reading_time"] = services.ReadingTime(content)
		}

		if err := db.Model(&article).Updates(updateData).Error; err != nil {
			log.Error("Error actualizando artículo", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update article"})
			return
		}
		c.JSON(http.StatusOK, article)
	})

	rg.POST("/query", func(c *gin.Context) {
		type ArticleQuery struct {
			DocumentID string `json:"document_id"`
			Status     string `json:"status"`
			Section    string `json:"section"`
			AuthorName string `json:"author_name"`
			Limit      int    `json:"limit"`
		}

		var req ArticleQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Article{})
		if req.DocumentID != "" {
			query = query.Where("document_id = ?", req.DocumentID)
		}
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
		if req.Section != "" {
			query = query.Where("section = ?", req.Section)
		}
		if req.AuthorName != "" {
			query = query.Where("author_name = ?", req.AuthorName)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var articles []models.Article
		if err := query.Order("created_at desc").Find(&articles).Error; err != nil {
			log.Error("Consulta de artículos fallida", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, articles)
	})

	// Publicación del artículo en el portal
	rg.POST("/:id/publish", func(c *gin.Context) {
		id := c.Param("id")
		var article models.Article
		if err := db.First(&article, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		now := time.Now()
		if err := db.Model(&article).Updates(map[string]any{
			"status":       "published",
			"published_at": now,
		}).Error; err != nil {
			log.Error("Error publicando artículo", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish article"})
			return
		}
		log.Info("Artículo publicado", zap.String("id", id), zap.String("slug", article.Slug))
		c.JSON(http.StatusOK, article)
	})

	// Feed público del portal: solo artículos publicados
	rg.GET("/portal", func(c *gin.Context) {
		query := db.Model(&models.Article{}).Where("status = ?", "published")
		if section := c.Query("section"); section != "" {
			query = query.Where("section = ?", section)
		}
		var articles []models.Article
		if err := query.Order("published_at desc").Limit(50).Find(&articles).Error; err != nil {
			log.Error("Consulta del portal fallida", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, articles)
	})
}

func setupSourceRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/sources")
	rg.POST("/", func(c *gin.Context) {
		var src models.Source
		if err := c.ShouldBindJSON(&src); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := db.Create(&src).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create source"})
			return
		}
		c.JSON(http.StatusCreated, src)
	})
	rg.GET("/", func(c *gin.Context) {
		var srcs []models.Source
		if err := db.Find(&srcs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, srcs)
	})
}

func setupScrapingRoutes(router *gin.Engine, extraction *services.ExtractionService) {
	rg := router.Group("/scraping")
	rg.POST("/all", func(c *gin.Context) {
		go func() {
			count, err := extraction.RunAllSources(context.Background())
			if err != nil {
				extraction.Logger.Error("Extracción asíncrona fallida", zap.Error(err))
			} else {
				newDocumentsCounter.Add(float64(count))
				extraction.Logger.Info("Extracción asíncrona completada", zap.Int("total_new_documents", count))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Extraction for all sources triggered."})
	})
	rg.POST("/source/:id", func(c *gin.Context) {
		id := c.Param("id")
		var src models.Source
		if err := extraction.DB.First(&src, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}

		go func() {
			count, err := extraction.RunForSource(context.Background(), src)
			if err != nil {
				extraction.Logger.Error("Extracción de fuente fallida", zap.Error(err), zap.String("source", src.Name))
			} else {
				newDocumentsCounter.Add(float64(count))
				extraction.Logger.Info("Extracción de fuente completada", zap.Int("new_documents", count), zap.String("source", src.Name))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": fmt.Sprintf("Extraction for source %s triggered.", src.Name)})
	})
}

// setupAIRoutes configura las rutas de análisis y generación con LLM. El
// id del documento viaja en el cuerpo porque contiene "/".
func setupAIRoutes(router *gin.Engine, ai *services.AIService, log *zap.Logger) {
	rg := router.Group("/ai")

	rg.POST("/analyze", func(c *gin.Context) {
		var req struct {
			DocumentID string `json:"document_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
			return
		}

		result, err := ai.AnalyzeDocument(c.Request.Context(), req.DocumentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			log.Error("Análisis IA fallido", zap.String("id", req.DocumentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	rg.POST("/generate-article", func(c *gin.Context) {
		var req struct {
			DocumentID string `json:"document_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
			return
		}

		article, err := ai.GenerateArticle(c.Request.Context(), req.DocumentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			log.Error("Generación de artículo fallida", zap.String("id", req.DocumentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, article)
	})

	rg.POST("/generate-titles", func(c *gin.Context) {
		var req struct {
			DocumentID string `json:"document_id" binding:"required"`
			Count      int    `json:"count"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
			return
		}

		titles, err := ai.GenerateTitles(c.Request.Context(), req.DocumentID, req.Count)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			log.Error("Generación de títulos fallida", zap.String("id", req.DocumentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"titles": titles})
	})
}

// setupCurationRoutes expone el escritorio de curación: transiciones de
// ciclo de vida sobre el Store, con el id del documento en el cuerpo.
func setupCurationRoutes(router *gin.Engine, store *curation.Store, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/curation")

	loadDocument := func(c *gin.Context, docID string) (curation.Document, bool) {
		var doc models.Document
		if err := db.First(&doc, "id = ?", docID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			} else {
				log.Error("Error de base consultando documento", zap.String("id", docID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			}
			return curation.Document{}, false
		}
		return toCurationDocument(doc), true
	}

	syncFlag := func(sync *bool) bool {
		if sync == nil {
			return true
		}
		return *sync
	}

	rg.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"approved":   store.Approved(),
			"rejected":   store.Rejected(),
			"ready":      store.Ready(),
			"published":  store.Published(),
			"archived":   store.Archived(),
			"last_sync":  store.LastSync(),
			"sync_error": store.SyncError(),
			"is_loading": store.IsLoading(),
		})
	})

	rg.POST("/approve", func(c *gin.Context) {
		var req struct {
			DocumentID string `json:"document_id" binding:"required"`
			Sync       *bool  `json:"sync"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
			return
		}
		doc, ok := loadDocument(c, req.DocumentID)
		if !ok {
			return
		}
		if err := store.ApproveDocument(c.Request.Context(), doc, syncFlag(req.Sync), nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		curatedCounter.WithLabelValues("approve").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "approved", "sync_error": store.SyncError()})
	})

	rg.POST("/reject", func(c *gin.Context) {
		var req struct {
			DocumentID string `json:"document_id" binding:"required"`
			Reason     string `json:"reason"`
			Sync       *bool  `json:"sync"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
			return
		}
		doc, ok := loadDocument(c, req.DocumentID)
		if !ok {
			return
		}
		if err := store.RejectDocument(c.Request.Context(), doc, req.Reason, syncFlag(req.Sync)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		curatedCounter.WithLabelValues("reject").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "rejected", "sync_error": store.SyncError()})
	})

	// Transición remote-first: si el backend no acepta, no hay mutación local.
	rg.POST("/ready", func(c *gin.Context) {
		var req struct {
			DocumentID string `json:"document_id" binding:"required"`
			ArticleID  string `json:"article_id"`
			Sync       *bool  `json:"sync"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
			return
		}
		doc, ok := loadDocument(c, req.DocumentID)
		if !ok {
			return
		}

		var article models.Article
		query := db.Where("document_id = ?", req.DocumentID)
		if req.ArticleID != "" {
			query = db.Where("id = ?", req.ArticleID)
		}
		if err := query.Order("created_at desc").First(&article).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found for document"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		if err := store.MoveToReady(c.Request.Context(), doc, articleDataFromModel(article), syncFlag(req.Sync)); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		curatedCounter.WithLabelValues("ready").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "moved to ready"})
	})

	rg.POST("/publish", func(c *gin.Context) {
		var req struct {
			DocumentID string `json:"document_id" binding:"required"`
			Sync       *bool  `json:"sync"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
			return
		}
		if !store.IsDocumentReady(req.DocumentID) {
			c.JSON(http.StatusConflict, gin.H{"error": "document is not in ready"})
			return
		}
		if err := store.PublishDocument(c.Request.Context(), req.DocumentID, syncFlag(req.Sync)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		curatedCounter.WithLabelValues("publish").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "published", "sync_error": store.SyncError()})
	})

	rg.POST("/archive", func(c *gin.Context) {
		var req struct {
			DocumentID string `json:"document_id" binding:"required"`
			Reason     string `json:"reason" binding:"required"`
			ArchivedBy string `json:"archived_by" binding:"required"`
			Sync       *bool  `json:"sync"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document_id, reason and archived_by are required"})
			return
		}
		doc, ok := loadDocument(c, req.DocumentID)
		if !ok {
			return
		}
		if err := store.ArchiveDocument(c.Request.Context(), doc, req.Reason, req.ArchivedBy, syncFlag(req.Sync)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		curatedCounter.WithLabelValues("archive").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "archived", "sync_error": store.SyncError()})
	})

	// Deshacer transiciones: efecto puramente local
	rg.POST("/undo", func(c *gin.Context) {
		var req struct {
			DocumentID string `json:"document_id" binding:"required"`
			Stage      string `json:"stage" binding:"required"` // approval | ready | rejection | archive
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document_id and stage are required"})
			return
		}
		switch req.Stage {
		case "approval":
			store.UndoApproval(req.DocumentID)
		case "ready":
			store.UndoReady(req.DocumentID)
		case "rejection":
			store.UndoRejection(req.DocumentID)
		case "archive":
			store.RestoreFromArchive(req.DocumentID)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown stage"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "undone", "stage": req.Stage})
	})

	rg.POST("/reset", func(c *gin.Context) {
		var req struct {
			Complete bool `json:"complete"`
		}
		_ = c.ShouldBindJSON(&req)
		if req.Complete {
			store.ResetSystemCompletely()
		} else {
			store.ResetToInitialState()
		}
		log.Info("Estado de curación reiniciado", zap.Bool("complete", req.Complete))
		c.JSON(http.StatusOK, gin.H{"message": "reset"})
	})
}

func seedDefaultSources(db *gorm.DB, logger *zap.Logger) {
	var count int64
	db.Model(&models.Source{}).Count(&count)
	if count > 0 {
		return
	}
	sources := []models.Source{
		{
			Name:    corteconstitucional.SourceName,
			Label:   "Corte Constitucional de Colombia",
			BaseURL: "https://www.corteconstitucional.gov.co",
			Enabled: true,
		},
	}
	if err := db.Create(&sources).Error; err != nil {
		logger.Warn("No se pudieron sembrar las fuentes por defecto", zap.Error(err))
	} else {
		logger.Info("Fuentes por defecto sembradas.")
	}
}
