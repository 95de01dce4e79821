package etsimport

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const masterFile = "knx_master.xml"

// documents locates the two core documents of a project.
type documents struct {
	// archive is the container holding both documents. It may be a nested
	// archive of the one passed to Parse.
	archive     *Archive
	nested      string
	projectPath string
	dataPath    string
	project     []byte
	data        []byte
}

type documentKind int

const (
	kindNone documentKind = iota
	kindProject
	kindData
)

// findDocuments locates the project and installation documents, first in
// the archive itself and then in each nested *.zip entry.
func findDocuments(a *Archive, diag *diagnostics) (*documents, error) {
	docs, err := readDocuments(a, diag)
	if err == nil {
		return docs, nil
	}
	if IsPasswordError(err) {
		return nil, err
	}
	diag.debug("project documents not at top level, scanning nested archives", "reason", err.Error())

	for _, name := range a.Names() {
		if !strings.HasSuffix(strings.ToLower(name), ".zip") {
			continue
		}
		nested, err := a.OpenNested(name)
		if err != nil {
			if IsPasswordError(err) {
				return nil, err
			}
			diag.warn(WarnUnreadableEntry, name, "", "unable to open nested archive %s: %v", name, err)
			continue
		}
		docs, err := readDocuments(nested, diag)
		if err == nil {
			docs.nested = name
			diag.info("project documents found in nested archive", "archive", name)
			return docs, nil
		}
		if IsPasswordError(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrMissingDocument, err)
}

// readDocuments finds both documents in a single archive and reads them.
func readDocuments(a *Archive, diag *diagnostics) (*documents, error) {
	projectPath, dataPath := findPathsByName(a.Names())
	if projectPath == "" || dataPath == "" {
		var err error
		projectPath, dataPath, err = findPathsByContent(a, diag)
		if err != nil {
			return nil, err
		}
	}

	project, err := a.ReadEntry(projectPath)
	if err != nil {
		return nil, err
	}
	data, err := a.ReadEntry(dataPath)
	if err != nil {
		return nil, err
	}

	diag.debug("project documents located", "project", projectPath, "data", dataPath)
	return &documents{
		archive:     a,
		projectPath: projectPath,
		dataPath:    dataPath,
		project:     project,
		data:        data,
	}, nil
}

// findPathsByName applies the ETS naming convention: P-xxxx/project.xml and
// P-xxxx/0.xml. Looser suffix matches and the lowest numeric N.xml are used
// when the convention is not followed. Empty results mean not found.
func findPathsByName(names []string) (projectPath, dataPath string) {
	candidate, candidateIndex := "", uint64(0)
	consider := func(name string) {
		index, ok := numericXMLIndex(name)
		if !ok {
			return
		}
		if candidate == "" || index < candidateIndex {
			candidate, candidateIndex = name, index
		}
	}

	for _, name := range names {
		isProjectDir := strings.HasPrefix(name, "P-")
		switch {
		case isProjectDir && strings.HasSuffix(name, "/project.xml"):
			if projectPath == "" {
				projectPath = name
			}
		case isProjectDir && strings.HasSuffix(name, "/0.xml"):
			if dataPath == "" {
				dataPath = name
			}
		case dataPath == "" && !excludedFromDiscovery(name):
			consider(name)
		}
	}

	if projectPath == "" || dataPath == "" {
		for _, name := range names {
			if excludedFromDiscovery(name) {
				continue
			}
			if projectPath == "" && strings.HasSuffix(name, "project.xml") {
				projectPath = name
			}
			if dataPath == "" && strings.HasSuffix(name, "0.xml") {
				dataPath = name
			} else if dataPath == "" {
				consider(name)
			}
		}
	}

	if dataPath == "" {
		dataPath = candidate
	}
	return projectPath, dataPath
}

// findPathsByContent parses every candidate XML entry and classifies it by
// the elements it contains.
func findPathsByContent(a *Archive, diag *diagnostics) (projectPath, dataPath string, err error) {
	for _, name := range a.Names() {
		if !strings.HasSuffix(name, ".xml") || excludedFromDiscovery(name) {
			continue
		}

		data, err := a.ReadEntry(name)
		if err != nil {
			if IsPasswordError(err) {
				return "", "", err
			}
			diag.warn(WarnUnreadableEntry, name, "", "unable to read %s: %v", name, err)
			continue
		}
		root, err := parseXML(name, data)
		if err != nil {
			diag.warn(WarnUnreadableEntry, name, "", "skipping %s: %v", name, err)
			continue
		}

		switch classifyDocument(root) {
		case kindProject:
			if projectPath == "" {
				projectPath = name
			}
		case kindData:
			if dataPath == "" {
				dataPath = name
			}
		}
		if projectPath != "" && dataPath != "" {
			return projectPath, dataPath, nil
		}
	}

	switch {
	case dataPath == "":
		return "", "", fmt.Errorf("%w: installation data", ErrMissingDocument)
	case projectPath == "":
		return "", "", fmt.Errorf("%w: project information", ErrMissingDocument)
	}
	return projectPath, dataPath, nil
}

// classifyDocument reports which core document root is. Installation data
// wins when both markers are present.
func classifyDocument(root *etree.Element) documentKind {
	switch {
	case hasDescendant(root, tagInstallations, tagTopology, tagGroupAddresses):
		return kindData
	case hasDescendant(root, tagProjectInformation):
		return kindProject
	default:
		return kindNone
	}
}

// excludedFromDiscovery reports whether an entry belongs to the catalog
// rather than the project.
func excludedFromDiscovery(name string) bool {
	return strings.HasPrefix(name, "M-") || strings.HasSuffix(name, masterFile)
}

// numericXMLIndex parses "N.xml" base names, e.g. "P-0001/12.xml" → 12.
func numericXMLIndex(name string) (uint64, bool) {
	base, ok := strings.CutSuffix(path.Base(name), ".xml")
	if !ok || base == "" {
		return 0, false
	}
	for _, r := range base {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(base, 10, 32)
	if err != nil {
		return 0, false
	}
	return n, true
}
