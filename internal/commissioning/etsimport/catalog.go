package etsimport

import (
	"fmt"

	"github.com/beevik/etree"
)

type productInfo struct {
	name        string
	orderNumber string
}

// hardwareData is the parsed Hardware.xml of one manufacturer.
type hardwareData struct {
	hardware2program map[string]string // Hardware2Program Id → application program Id
	products         map[string]productInfo
	coupler          map[string]bool // Product or Hardware2Program Id → IsCoupler
}

// catalog lazily loads manufacturer catalogs for one import. It is not
// shared between imports; missing or broken catalog files are cached as
// nil so each is reported once.
type catalog struct {
	sources  []*Archive
	language string
	diag     *diagnostics

	hardware map[string]*hardwareData
	programs map[string]*appProgram
}

func newCatalog(sources []*Archive, language string, diag *diagnostics) *catalog {
	return &catalog{
		sources:  sources,
		language: language,
		diag:     diag,
		hardware: make(map[string]*hardwareData),
		programs: make(map[string]*appProgram),
	}
}

// read returns an entry from the first source archive that has it.
func (c *catalog) read(name string) ([]byte, error) {
	for _, a := range c.sources {
		if a.Has(name) {
			return a.ReadEntry(name)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
}

func (c *catalog) document(name string) (*etree.Element, error) {
	data, err := c.read(name)
	if err != nil {
		return nil, err
	}
	return parseXML(name, data)
}

// manufacturerNames reads manufacturer Id → Name from knx_master.xml.
// Only password errors are returned; anything else yields an empty map.
func (c *catalog) manufacturerNames() (map[string]string, error) {
	names := make(map[string]string)
	root, err := c.document(masterFile)
	if err != nil {
		if IsPasswordError(err) {
			return nil, err
		}
		c.diag.warn(WarnMissingCatalog, masterFile, "", "manufacturer names unavailable: %v", err)
		return names, nil
	}
	for _, m := range descendants(root, tagManufacturer) {
		id, ok := rawAttr(m, "Id")
		if !ok {
			continue
		}
		if name := attr(m, "Name"); name != "" {
			names[id] = name
		}
	}
	return names, nil
}

// hardwareFor returns the hardware catalog of a manufacturer, or nil.
func (c *catalog) hardwareFor(manufacturer string) *hardwareData {
	if manufacturer == "" {
		return nil
	}
	if hw, ok := c.hardware[manufacturer]; ok {
		return hw
	}

	name := manufacturer + "/Hardware.xml"
	root, err := c.document(name)
	if err != nil {
		c.diag.warn(WarnMissingCatalog, name, manufacturer, "hardware data for %s unavailable: %v", manufacturer, err)
		c.hardware[manufacturer] = nil
		return nil
	}
	hw := parseHardware(root, c.language)
	c.hardware[manufacturer] = hw
	return hw
}

// program returns the application program referenced by a
// Hardware2Program id, or nil.
func (c *catalog) program(hw *hardwareData, hardware2program string) *appProgram {
	if hw == nil || hardware2program == "" {
		return nil
	}
	appID, ok := hw.hardware2program[hardware2program]
	if !ok {
		return nil
	}
	if app, ok := c.programs[appID]; ok {
		return app
	}

	name := appProgramPath(appID)
	root, err := c.document(name)
	if err != nil {
		c.diag.warn(WarnMissingCatalog, name, appID, "application program %s unavailable: %v", appID, err)
		c.programs[appID] = nil
		return nil
	}
	app := parseAppProgram(root, appID, c.language)
	c.programs[appID] = app
	return app
}

func parseHardware(root *etree.Element, language string) *hardwareData {
	hw := &hardwareData{
		hardware2program: make(map[string]string),
		products:         make(map[string]productInfo),
		coupler:          make(map[string]bool),
	}
	tr := buildTranslations(root, "", language)

	for _, h := range descendants(root, tagHardware) {
		isCoupler := false
		switch v, _ := rawAttr(h, "IsCoupler"); v {
		case "1", "true", "True":
			isCoupler = true
		}

		for _, h2p := range descendants(h, tagHardware2Program) {
			id, ok := rawAttr(h2p, "Id")
			if !ok {
				continue
			}
			if ref := firstDescendant(h2p, tagApplicationProgramRef); ref != nil {
				if appID, ok := rawAttr(ref, "RefId"); ok {
					hw.hardware2program[id] = appID
				}
			}
			hw.coupler[id] = isCoupler
		}

		for _, p := range descendants(h, tagProduct) {
			id, ok := rawAttr(p, "Id")
			if !ok {
				continue
			}
			if _, exists := hw.products[id]; !exists {
				hw.products[id] = productInfo{
					name:        localizedAttr(p, "Text", tr, ""),
					orderNumber: attr(p, "OrderNumber"),
				}
			}
			hw.coupler[id] = isCoupler
		}
	}
	return hw
}
