package content

import (
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/dmitrijs2005/flashgenius/internal/filex"
)

// LoadFile reads a user-selected input file of at most maxSize bytes and
// stages it as media input.
func LoadFile(path string, maxSize int64) (models.MediaInput, error) {
	data, err := filex.ReadLimited(path, maxSize)
	if err != nil {
		return models.MediaInput{}, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	if len(data) == 0 {
		return models.MediaInput{}, fmt.Errorf("%w: %s is empty", common.ErrValidation, filepath.Base(path))
	}

	mime, err := DetectMIME(path, data)
	if err != nil {
		return models.MediaInput{}, err
	}
	return models.MediaInput{Name: filepath.Base(path), Data: data, MIME: mime}, nil
}
