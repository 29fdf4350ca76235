package config

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

const UTF8 = "UTF-8"

// nil means scripts are already utf-8
var currentCharMap *charmap.Charmap

func SetEncoding(name string) error {
	if name == "" || strings.EqualFold(name, UTF8) || strings.EqualFold(name, "utf8") {
		currentCharMap = nil
		return nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if strings.EqualFold(cm.String(), name) {
				currentCharMap = cm
				return nil
			}
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := []string{UTF8}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() *charmap.Charmap {
	return currentCharMap
}

// DecodeScript converts script source in the current encoding to utf-8.
func DecodeScript(data []byte) ([]byte, error) {
	if currentCharMap == nil {
		return data, nil
	}
	result, err := currentCharMap.NewDecoder().Bytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode script as %v", currentCharMap)
	}
	return result, nil
}
