package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"pvbess-model/internal/api/models"
	"pvbess-model/internal/config"
	"pvbess-model/internal/logging"
	"pvbess-model/internal/model"
)

// PlantHandler serves the plant presets in a directory of YAML files.
type PlantHandler struct {
	dir    string
	logger logging.Logger
}

// DefaultPlantDir is PLANT_DIR, or examples/plants under the working directory.
func DefaultPlantDir() string {
	if dir := os.Getenv("PLANT_DIR"); dir != "" {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "examples", "plants")
	}
	return "./examples/plants"
}

func NewPlantHandler(dir string, logger logging.Logger) *PlantHandler {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	logger.Infof("using plant directory: %s", dir)
	return &PlantHandler{dir: dir, logger: logger}
}

func (h *PlantHandler) Dir() string {
	return h.dir
}

// ListPlants handles GET /api/v1/plants
func (h *PlantHandler) ListPlants(c *gin.Context) {
	plants := []models.PlantInfo{}

	entries, err := os.ReadDir(h.dir)
	if err != nil {
		h.logger.Warnf("read plant directory %s: %v", h.dir, err)
		c.JSON(http.StatusOK, gin.H{"plants": plants})
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(h.dir, entry.Name())
		info, err := h.loadPlantInfo(path, entry.Name())
		if err != nil {
			h.logger.Warnf("skipping plant file %s: %v", path, err)
			continue
		}
		plants = append(plants, *info)
	}
	sort.Slice(plants, func(i, j int) bool { return plants[i].ID < plants[j].ID })

	h.logger.Debugf("returning %d plants", len(plants))
	c.JSON(http.StatusOK, gin.H{"plants": plants})
}

// Resolve loads the preset with the given ID and overlays override onto it.
// Only the base name of id is used, so presets cannot escape the directory.
func (h *PlantHandler) Resolve(id string, override config.PlantConfig) (config.PlantConfig, error) {
	if id == "" {
		return override, nil
	}
	name := filepath.Base(strings.TrimSuffix(id, filepath.Ext(id)))
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(h.dir, name+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		loaded, err := config.LoadPlantFile(path)
		if err != nil {
			return config.PlantConfig{}, model.ConfigErrorf("plant_file", "%v", err)
		}
		return config.MergePlant(loaded, override), nil
	}
	return config.PlantConfig{}, model.ConfigErrorf("plant_file", "unknown plant preset %q", id)
}

func (h *PlantHandler) loadPlantInfo(path, filename string) (*models.PlantInfo, error) {
	plant, err := config.LoadPlantFile(path)
	if err != nil {
		return nil, err
	}
	// "site_a.yaml" -> "site_a"
	id := strings.TrimSuffix(filename, filepath.Ext(filename))
	name := plant.Name
	if name == "" {
		name = id
	}
	return &models.PlantInfo{
		ID:   id,
		Name: name,
		File: path,
		Specs: models.PlantSpecs{
			BESSCapacityKWh: plant.BESSCapacityKWh,
			BESSPowerKW:     plant.BESSPowerKW,
			BESSEfficiency:  plant.BESSEfficiency,
			StrategyMode:    plant.StrategyMode,
		},
	}, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
