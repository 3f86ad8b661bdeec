package curation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Claves conocidas del almacén persistido.
const (
	// SnapshotKey es la clave bajo la que se guarda el snapshot de curación.
	SnapshotKey = "juridica-curation"
	// DraftKeyPrefix marca los borradores de artículo, purgables ante falta de cuota.
	DraftKeyPrefix = "article-draft:"
)

// systemKeys son las demás claves conocidas que ResetSystemCompletely
// elimina de forma best-effort.
var systemKeys = []string{"juridica-auth", "juridica-app", "juridica-preferences", "juridica-temp"}

// ErrQuotaExceeded indica que una escritura superaría la cuota del almacén.
var ErrQuotaExceeded = errors.New("cuota de almacenamiento excedida")

// SnapshotStore es un almacén clave-valor durable con límite de tamaño.
// Load devuelve (nil, nil) cuando la clave no existe.
type SnapshotStore interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Delete(key string) error
	DeletePrefix(prefix string) error
}

// FileSnapshotStore persiste cada clave como un archivo JSON dentro de un
// directorio, con una cuota total en bytes sobre el directorio completo.
type FileSnapshotStore struct {
	dir      string
	maxBytes int64
}

var _ SnapshotStore = (*FileSnapshotStore)(nil)

// NewFileSnapshotStore crea el directorio si no existe. maxBytes <= 0
// deshabilita la cuota.
func NewFileSnapshotStore(dir string, maxBytes int64) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de snapshots: %w", err)
	}
	return &FileSnapshotStore{dir: dir, maxBytes: maxBytes}, nil
}

// Load lee el valor de una clave; (nil, nil) si no existe.
func (s *FileSnapshotStore) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Save escribe el valor de una clave respetando la cuota del directorio.
func (s *FileSnapshotStore) Save(key string, data []byte) error {
	if s.maxBytes > 0 {
		used, err := s.usedBytes(key)
		if err != nil {
			return err
		}
		if used+int64(len(data)) > s.maxBytes {
			return ErrQuotaExceeded
		}
	}
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(key))
}

// Delete elimina una clave. No es error que no exista.
func (s *FileSnapshotStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// DeletePrefix elimina todas las claves con el prefijo dado.
func (s *FileSnapshotStore) DeletePrefix(prefix string) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	encoded := encodeKey(prefix)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), encoded) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
	}
	return nil
}

// usedBytes suma el tamaño de todas las claves excepto la que se va a
// reescribir.
func (s *FileSnapshotStore) usedBytes(excludeKey string) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	exclude := encodeKey(excludeKey) + ".json"
	var total int64
	for _, e := range entries {
		if e.IsDir() || e.Name() == exclude {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

func (s *FileSnapshotStore) path(key string) string {
	return filepath.Join(s.dir, encodeKey(key)+".json")
}

// encodeKey sanea una clave para usarla como nombre de archivo.
func encodeKey(key string) string {
	r := strings.NewReplacer(":", "__", "/", "_", "\\", "_")
	return r.Replace(key)
}
