package etsimport

import (
	"log/slog"
	"time"

	"github.com/nerrad567/knxgraph-core/internal/knx"
)

// Options configures a single import.
type Options struct {
	// Password unlocks encrypted archives. Empty means none.
	Password string

	// Language is the preferred translation language, e.g. "de" or "de-DE".
	// Empty falls back to en, fr and de in that order.
	Language string

	// GroupAddressStyle renders group addresses. Ignored when
	// StyleFromProject is set and the project declares a style.
	GroupAddressStyle knx.GroupAddressStyle

	// StyleFromProject uses the style declared in the project information.
	StyleFromProject bool

	// Logger receives skipped-element warnings. Nil discards them.
	Logger *slog.Logger
}

// Parser imports ETS project archives.
type Parser struct {
	opts Options
}

// NewParser creates a Parser with the given options.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Parse is shorthand for NewParser(opts).Parse(data).
func Parse(data []byte, opts Options) (*Project, error) {
	return NewParser(opts).Parse(data)
}

// Parse imports an ETS project archive.
//
// It fails only when the archive cannot be opened, the password is missing
// or wrong, or the project documents are missing or not well-formed XML.
// Everything below that level degrades: elements lacking required
// attributes are skipped and catalog gaps leave fields empty, each recorded
// in Project.Warnings.
func (p *Parser) Parse(data []byte) (*Project, error) {
	diag := newDiagnostics(p.opts.Logger)

	archive, err := OpenArchive(data, p.opts.Password)
	if err != nil {
		return nil, err
	}
	diag.debug("archive opened", "entries", len(archive.Names()), "encrypted", archive.Encrypted())

	docs, err := findDocuments(archive, diag)
	if err != nil {
		return nil, err
	}
	projectRoot, err := parseXML(docs.projectPath, docs.project)
	if err != nil {
		return nil, err
	}
	dataRoot, err := parseXML(docs.dataPath, docs.data)
	if err != nil {
		return nil, err
	}

	sources := []*Archive{docs.archive}
	if docs.archive != archive {
		sources = append(sources, archive)
	}
	cat := newCatalog(sources, p.opts.Language, diag)
	manufacturers, err := cat.manufacturerNames()
	if err != nil {
		return nil, err
	}

	info := extractProjectInfo(projectRoot, dataRoot)
	style := p.opts.GroupAddressStyle
	if p.opts.StyleFromProject && info != nil && info.GroupAddressStyle != "" {
		style = knx.ParseGroupAddressStyle(info.GroupAddressStyle)
	}

	project := &Project{
		ProjectName:       projectName(projectRoot),
		Info:              info,
		GroupAddressStyle: style.String(),
	}
	project.Areas, project.Lines = extractTopology(dataRoot, diag)
	project.GroupAddresses = extractGroupAddresses(dataRoot, style, diag)

	resolver := &deviceResolver{
		catalog:       cat,
		manufacturers: manufacturers,
		groups:        indexGroupAddresses(project.GroupAddresses),
		diag:          diag,
	}
	project.Devices = resolver.resolveAll(dataRoot)
	if project.Devices == nil {
		project.Devices = []Device{}
	}
	project.Locations = extractLocations(dataRoot, project.Devices)
	linkGroupAddresses(project.GroupAddresses, project.Devices)

	project.Warnings = diag.warnings
	if project.Warnings == nil {
		project.Warnings = []ParseWarning{}
	}
	project.Statistics = statistics(project)
	project.ParsedAt = time.Now().UTC()

	diag.info("project imported",
		"project", project.ProjectName,
		"devices", project.Statistics.Devices,
		"group_addresses", project.Statistics.GroupAddresses,
		"warnings", project.Statistics.Warnings,
	)
	return project, nil
}

func statistics(p *Project) ParseStatistics {
	stats := ParseStatistics{
		Areas:          len(p.Areas),
		Lines:          len(p.Lines),
		Devices:        len(p.Devices),
		GroupAddresses: len(p.GroupAddresses),
		Locations:      countSpaces(p.Locations),
		Warnings:       len(p.Warnings),
	}
	for _, d := range p.Devices {
		stats.GroupLinks += len(d.GroupLinks)
	}
	return stats
}

func countSpaces(spaces []BuildingSpace) int {
	n := len(spaces)
	for _, s := range spaces {
		n += countSpaces(s.Children)
	}
	return n
}
