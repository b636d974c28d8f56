package infrastructure

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourusername/mediavault/internal/domain"
)

// fieldStrategy enumerates the closed set of search filter semantics
type fieldStrategy int

const (
	// strategyTextContains is a single-value case-insensitive substring
	strategyTextContains fieldStrategy = iota
	// strategyMultiOrContains ORs substring matches over multiple values
	strategyMultiOrContains
	// strategyTagSetAnd requires media to carry every named tag
	strategyTagSetAnd
)

// searchField binds a request field to its strategy and target column
type searchField struct {
	strategy fieldStrategy
	column   string
}

var searchFields = map[string]searchField{
	"title":    {strategy: strategyTextContains, column: "media.title"},
	"author":   {strategy: strategyMultiOrContains, column: "profiles.owner_name"},
	"platform": {strategy: strategyMultiOrContains, column: "platforms.name"},
	"tags":     {strategy: strategyTagSetAnd},
}

// SQLiteCatalogRepository implements domain.CatalogRepository. It is the
// sole writer of platform, profile and media rows; registration only
// ever runs from the queue's serialized lane, so entity de-duplication
// needs no extra locking.
type SQLiteCatalogRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLiteCatalogRepository creates a catalog repository on an open database
func NewSQLiteCatalogRepository(db *gorm.DB, logger *zap.Logger) *SQLiteCatalogRepository {
	return &SQLiteCatalogRepository{db: db, logger: logger}
}

// RegisterMedia resolves the platform and profile entities from the
// extraction metadata and inserts the media row with its tags. All
// resolutions and the insert commit or roll back together.
func (r *SQLiteCatalogRepository) RegisterMedia(meta *domain.ExtractMetadata, mediaPath, thumbnailPath string) (*domain.Media, error) {
	if meta == nil {
		return nil, &CatalogWriteError{Err: fmt.Errorf("metadata is nil")}
	}

	var media *domain.Media

	err := r.db.Transaction(func(tx *gorm.DB) error {
		platform, err := r.resolvePlatform(tx, meta.PlatformName())
		if err != nil {
			return err
		}

		profile, err := r.resolveProfile(tx, meta.OwnerID(), meta.OwnerName(), platform.ID)
		if err != nil {
			return err
		}

		m := &domain.Media{
			Title:      meta.ResolvedTitle(),
			Filepath:   mediaPath,
			Filesize:   meta.ResolvedFilesize(),
			PlatformID: &platform.ID,
			ProfileID:  &profile.ID,
		}
		if url := meta.CanonicalURL(); url != "" {
			m.URL = &url
		}
		if thumbnailPath != "" {
			m.ThumbnailPath = &thumbnailPath
		}

		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("failed to insert media: %w", err)
		}

		if err := r.attachTags(tx, m, meta.Tags); err != nil {
			return err
		}

		media = m
		return nil
	})
	if err != nil {
		return nil, &CatalogWriteError{Err: err}
	}

	r.logger.Info("Media cataloged",
		zap.Uint("media_id", media.ID),
		zap.String("title", media.Title),
		zap.String("platform", meta.PlatformName()))

	return media, nil
}

// resolvePlatform looks a platform up by unique name, creating it on
// first sighting. Platforms are never updated afterwards.
func (r *SQLiteCatalogRepository) resolvePlatform(tx *gorm.DB, name string) (*domain.Platform, error) {
	var platform domain.Platform
	err := tx.Where("name = ?", name).First(&platform).Error
	if err == nil {
		return &platform, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up platform: %w", err)
	}

	platform = domain.Platform{Name: name}
	if err := tx.Create(&platform).Error; err != nil {
		return nil, fmt.Errorf("failed to create platform: %w", err)
	}
	return &platform, nil
}

// resolveProfile looks a profile up by (owner id, platform), refreshing
// the display name when a later extraction reports a different one
func (r *SQLiteCatalogRepository) resolveProfile(tx *gorm.DB, ownerID, ownerName string, platformID uint) (*domain.Profile, error) {
	var profile domain.Profile
	err := tx.Where("owner_id = ? AND platform_id = ?", ownerID, platformID).First(&profile).Error
	if err == nil {
		if ownerName != "" && profile.OwnerName != ownerName {
			profile.OwnerName = ownerName
			if err := tx.Save(&profile).Error; err != nil {
				return nil, fmt.Errorf("failed to refresh profile name: %w", err)
			}
		}
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}

	profile = domain.Profile{
		OwnerID:    ownerID,
		OwnerName:  ownerName,
		PlatformID: platformID,
	}
	if err := tx.Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return &profile, nil
}

// attachTags upserts each named tag and links it to the media row
func (r *SQLiteCatalogRepository) attachTags(tx *gorm.DB, media *domain.Media, names []string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var tag domain.Tag
		if err := tx.Where(domain.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", name, err)
		}
		if err := tx.Model(media).Association("Tags").Append(&tag); err != nil {
			return fmt.Errorf("failed to link tag %q: %w", name, err)
		}
	}
	return nil
}

// ListAll returns the full catalog ordered by recency
func (r *SQLiteCatalogRepository) ListAll() ([]domain.Media, error) {
	var media []domain.Media
	err := r.db.
		Preload("Platform").
		Preload("Profile").
		Preload("Tags").
		Order("created_at DESC").
		Find(&media).Error
	return media, err
}

// Search builds the filtered, paginated catalog query. Every declared
// field routes through the strategy table; all active conditions are
// conjoined.
func (r *SQLiteCatalogRepository) Search(req domain.SearchRequest) (*domain.SearchResult, error) {
	req.Normalize()

	// The count and data queries share the same filter set, so the
	// conditions are applied to a fresh query each time
	filtered := func() *gorm.DB {
		q := r.db.Model(&domain.Media{}).
			Joins("LEFT JOIN profiles ON profiles.id = media.profile_id").
			Joins("LEFT JOIN platforms ON platforms.id = media.platform_id")
		return r.applyFilters(q, req)
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count search results: %w", err)
	}

	var rows []domain.MediaRow
	err := filtered().
		Select("media.id, media.title, media.filepath, media.url, media.filesize, " +
			"media.thumbnail_path, media.platform_id, media.profile_id, media.created_at, " +
			"profiles.owner_name AS author, platforms.name AS platform").
		Order("media.created_at DESC").
		Limit(req.Limit).
		Offset((req.Page - 1) * req.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}

	return &domain.SearchResult{
		Data:        rows,
		Total:       total,
		HasNextPage: total > int64(req.Page)*int64(req.Limit),
	}, nil
}

func (r *SQLiteCatalogRepository) applyFilters(q *gorm.DB, req domain.SearchRequest) *gorm.DB {
	fieldValues := map[string][]string{}
	if req.Title != "" {
		fieldValues["title"] = []string{req.Title}
	}
	if len(req.Author) > 0 {
		fieldValues["author"] = req.Author
	}
	if len(req.Platform) > 0 {
		fieldValues["platform"] = req.Platform
	}
	if len(req.Tags) > 0 {
		fieldValues["tags"] = req.Tags
	}

	for field, values := range fieldValues {
		cfg := searchFields[field]

		switch cfg.strategy {
		case strategyTextContains:
			q = q.Where(fmt.Sprintf("LOWER(%s) LIKE ?", cfg.column), containsPattern(values[0]))

		case strategyMultiOrContains:
			clauses := make([]string, len(values))
			args := make([]interface{}, len(values))
			for i, v := range values {
				clauses[i] = fmt.Sprintf("LOWER(%s) LIKE ?", cfg.column)
				args[i] = containsPattern(v)
			}
			q = q.Where("("+strings.Join(clauses, " OR ")+")", args...)

		case strategyTagSetAnd:
			q = q.Where(
				"media.id IN (SELECT media_tags.media_id FROM media_tags "+
					"JOIN tags ON tags.id = media_tags.tag_id "+
					"WHERE tags.name IN ? "+
					"GROUP BY media_tags.media_id "+
					"HAVING COUNT(tags.id) = ?)",
				values, len(values))
		}
	}

	if req.StartDate != nil {
		q = q.Where("media.created_at >= ?", *req.StartDate)
	}
	if req.EndDate != nil {
		q = q.Where("media.updated_at <= ?", *req.EndDate)
	}

	return q
}

func containsPattern(v string) string {
	return "%" + strings.ToLower(v) + "%"
}

// SuggestAuthors returns up to 10 distinct profile display names
// containing the keyword
func (r *SQLiteCatalogRepository) SuggestAuthors(keyword string) ([]string, error) {
	return r.suggest(&domain.Profile{}, "owner_name", keyword)
}

// SuggestPlatforms returns up to 10 distinct platform names containing
// the keyword
func (r *SQLiteCatalogRepository) SuggestPlatforms(keyword string) ([]string, error) {
	return r.suggest(&domain.Platform{}, "name", keyword)
}

// SuggestTags returns up to 10 distinct tag names containing the keyword
func (r *SQLiteCatalogRepository) SuggestTags(keyword string) ([]string, error) {
	return r.suggest(&domain.Tag{}, "name", keyword)
}

func (r *SQLiteCatalogRepository) suggest(model interface{}, column, keyword string) ([]string, error) {
	if keyword == "" {
		return []string{}, nil
	}

	var names []string
	err := r.db.Model(model).
		Distinct(column).
		Where(fmt.Sprintf("%s IS NOT NULL AND %s <> '' AND LOWER(%s) LIKE ?", column, column, column), containsPattern(keyword)).
		Limit(10).
		Pluck(column, &names).Error
	return names, err
}
