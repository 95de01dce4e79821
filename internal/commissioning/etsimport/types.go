package etsimport

import "time"

// Project is the fully resolved model of one ETS project archive.
//
// It is built by a single Parse call and not modified afterwards.
type Project struct {
	// ProjectName is the ProjectInformation name, or DefaultProjectName.
	ProjectName string `json:"project_name"`

	// Info carries the remaining project metadata, when present.
	Info *ProjectInfo `json:"project_info,omitempty"`

	// GroupAddressStyle is the style used to render group addresses.
	GroupAddressStyle string `json:"group_address_style"`

	// ParsedAt is when the archive was parsed.
	ParsedAt time.Time `json:"parsed_at"`

	Areas          []Area             `json:"areas"`
	Lines          []Line             `json:"lines"`
	Devices        []Device           `json:"devices"`
	GroupAddresses []GroupAddressInfo `json:"group_addresses"`
	Locations      []BuildingSpace    `json:"locations"`

	// Statistics summarises the parse results.
	Statistics ParseStatistics `json:"statistics"`

	// Warnings contains non-fatal issues encountered during parsing.
	Warnings []ParseWarning `json:"warnings,omitempty"`
}

// ParseStatistics summarises parse results.
type ParseStatistics struct {
	Areas          int `json:"areas"`
	Lines          int `json:"lines"`
	Devices        int `json:"devices"`
	GroupAddresses int `json:"group_addresses"`
	GroupLinks     int `json:"group_links"`
	Locations      int `json:"locations"`
	Warnings       int `json:"warnings"`
}

// ParseWarning represents a non-fatal issue during parsing.
type ParseWarning struct {
	// Code is a machine-readable warning code (see Warn* constants).
	Code string `json:"code"`

	// Element is the XML element or archive entry concerned.
	Element string `json:"element,omitempty"`

	// ID is the element identifier, if known.
	ID string `json:"id,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// Area is a KNX topology area.
type Area struct {
	Address          string `json:"address"`
	Name             string `json:"name,omitempty"`
	Description      string `json:"description,omitempty"`
	Comment          string `json:"comment,omitempty"`
	CompletionStatus string `json:"completion_status,omitempty"`
}

// Line is a KNX topology line. Area refers to Area.Address.
type Line struct {
	Area             string `json:"area"`
	Line             string `json:"line"`
	Name             string `json:"name,omitempty"`
	Description      string `json:"description,omitempty"`
	Comment          string `json:"comment,omitempty"`
	MediumType       string `json:"medium_type,omitempty"`
	CompletionStatus string `json:"completion_status,omitempty"`
}

// Device is one resolved device instance.
type Device struct {
	// InstanceID is the DeviceInstance Id from the project.
	InstanceID string `json:"instance_id"`

	// IndividualAddress is "A.L.D", or a placeholder when parts are missing.
	IndividualAddress string `json:"individual_address"`

	// Name is the display name after fallbacks.
	Name string `json:"name"`

	Manufacturer     string `json:"manufacturer,omitempty"`
	Product          string `json:"product,omitempty"`
	ProductReference string `json:"product_reference,omitempty"`
	ProductRefID     string `json:"product_ref_id,omitempty"`
	Hardware2Program string `json:"hardware2program_ref_id,omitempty"`
	IsCoupler        bool   `json:"is_coupler,omitempty"`
	Description      string `json:"description,omitempty"`
	Comment          string `json:"comment,omitempty"`
	SerialNumber     string `json:"serial_number,omitempty"`
	LastModified     string `json:"last_modified,omitempty"`
	LastDownload     string `json:"last_download,omitempty"`

	AppProgramID      string `json:"app_program_id,omitempty"`
	AppProgramName    string `json:"app_program_name,omitempty"`
	AppProgramVersion string `json:"app_program_version,omitempty"`
	AppProgramNumber  string `json:"app_program_number,omitempty"`
	AppProgramType    string `json:"app_program_type,omitempty"`
	AppMaskVersion    string `json:"app_mask_version,omitempty"`

	MediumType           string `json:"medium_type,omitempty"`
	SegmentID            string `json:"segment_id,omitempty"`
	SegmentNumber        string `json:"segment_number,omitempty"`
	SegmentDomainAddress string `json:"segment_domain_address,omitempty"`
	SegmentMediumType    string `json:"segment_medium_type,omitempty"`

	IPAssignment     string `json:"ip_assignment,omitempty"`
	IPAddress        string `json:"ip_address,omitempty"`
	IPSubnetMask     string `json:"ip_subnet_mask,omitempty"`
	IPDefaultGateway string `json:"ip_default_gateway,omitempty"`
	MACAddress       string `json:"mac_address,omitempty"`

	// GroupLinks holds one entry per communication object / group address pair.
	GroupLinks []GroupLink `json:"group_links"`

	// Configuration maps parameter display names to display values.
	Configuration map[string]string `json:"configuration"`

	// ConfigurationEntries keeps the raw values and context behind Configuration.
	ConfigurationEntries []DeviceConfigEntry `json:"configuration_entries,omitempty"`
}

// GroupLink is one communication-object-to-group-address relation.
type GroupLink struct {
	// ComObjectRefID is the ComObjectInstanceRef RefId.
	ComObjectRefID string `json:"com_object_ref_id,omitempty"`

	// ObjectName is the assembled display name, e.g. "[#3] [Switch] On/Off".
	ObjectName         string `json:"object_name"`
	ObjectNameRaw      string `json:"object_name_raw,omitempty"`
	ObjectText         string `json:"object_text,omitempty"`
	ObjectFunctionText string `json:"object_function_text,omitempty"`

	// GroupAddress is the rendered address, or the raw link id when unresolved.
	GroupAddress string `json:"group_address"`

	IsTransmitter bool `json:"is_transmitter"`
	IsReceiver    bool `json:"is_receiver"`

	// ETSSendingAddress is the first address listed on the object. ETS
	// treats it as the sending address; it is repeated on every link of
	// the object.
	ETSSendingAddress string `json:"ets_sending_address,omitempty"`
	ETSSending        bool   `json:"ets_sending"`
	ETSReceiving      bool   `json:"ets_receiving"`

	Channel       string `json:"channel,omitempty"`
	DatapointType string `json:"datapoint_type,omitempty"`

	// DPT is DatapointType in "X.YYY" form.
	DPT string `json:"dpt,omitempty"`

	Number           *uint32      `json:"number,omitempty"`
	Description      string       `json:"description,omitempty"`
	ObjectSize       string       `json:"object_size,omitempty"`
	Security         string       `json:"security,omitempty"`
	BuildingFunction string       `json:"building_function,omitempty"`
	BuildingPart     string       `json:"building_part,omitempty"`
	Flags            *ObjectFlags `json:"flags,omitempty"`
}

// ObjectFlags are the resolved communication object flags.
type ObjectFlags struct {
	Communication bool `json:"communication"`
	Read          bool `json:"read"`
	Write         bool `json:"write"`
	Transmit      bool `json:"transmit"`
	Update        bool `json:"update"`
	ReadOnInit    bool `json:"read_on_init"`
}

// String renders the set flags as ETS letters, e.g. "C W T".
func (f ObjectFlags) String() string {
	letters := make([]byte, 0, 11)
	add := func(set bool, c byte) {
		if !set {
			return
		}
		if len(letters) > 0 {
			letters = append(letters, ' ')
		}
		letters = append(letters, c)
	}
	add(f.Communication, 'C')
	add(f.Read, 'R')
	add(f.Write, 'W')
	add(f.Transmit, 'T')
	add(f.Update, 'U')
	add(f.ReadOnInit, 'I')
	return string(letters)
}

// DeviceConfigEntry is one configuration value of a device.
type DeviceConfigEntry struct {
	Name          string `json:"name"`
	Value         string `json:"value"`
	ValueRaw      string `json:"value_raw,omitempty"`
	ValueLabel    string `json:"value_label,omitempty"`
	ParameterType string `json:"parameter_type,omitempty"`
	Context       string `json:"context,omitempty"`
	RefID         string `json:"ref_id,omitempty"`

	// Source is "Parameter" or "Property".
	Source string `json:"source,omitempty"`
}

// GroupAddressInfo is one group address definition.
type GroupAddressInfo struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Name    string `json:"name"`

	MainGroupName          string `json:"main_group_name,omitempty"`
	MainGroupDescription   string `json:"main_group_description,omitempty"`
	MainGroupComment       string `json:"main_group_comment,omitempty"`
	MiddleGroupName        string `json:"middle_group_name,omitempty"`
	MiddleGroupDescription string `json:"middle_group_description,omitempty"`
	MiddleGroupComment     string `json:"middle_group_comment,omitempty"`

	Description   string `json:"description,omitempty"`
	Comment       string `json:"comment,omitempty"`
	Security      string `json:"security,omitempty"`
	DatapointType string `json:"datapoint_type,omitempty"`
	DPT           string `json:"dpt,omitempty"`

	// LinkedDevices lists individual addresses of devices linked to this address.
	LinkedDevices []string `json:"linked_devices"`
}

// BuildingSpace is a node of the building structure tree.
type BuildingSpace struct {
	ID               string              `json:"id"`
	Name             string              `json:"name,omitempty"`
	SpaceType        string              `json:"space_type"`
	Number           string              `json:"number,omitempty"`
	DefaultLine      string              `json:"default_line,omitempty"`
	Description      string              `json:"description,omitempty"`
	CompletionStatus string              `json:"completion_status,omitempty"`
	Devices          []BuildingDeviceRef `json:"devices"`
	Children         []BuildingSpace     `json:"children"`
}

// BuildingDeviceRef is a device placed in a building space.
type BuildingDeviceRef struct {
	InstanceID string `json:"instance_id"`
	Address    string `json:"address,omitempty"`
	Name       string `json:"name,omitempty"`
}

// ProjectInfo carries project-level metadata from the project document.
type ProjectInfo struct {
	Name              string               `json:"name,omitempty"`
	ProjectType       string               `json:"project_type,omitempty"`
	ProjectNumber     string               `json:"project_number,omitempty"`
	ContractNumber    string               `json:"contract_number,omitempty"`
	Description       string               `json:"description,omitempty"`
	CompletionStatus  string               `json:"completion_status,omitempty"`
	ArchivedVersion   string               `json:"archived_version,omitempty"`
	SecurityMode      string               `json:"security_mode,omitempty"`
	HasTracingKey     bool                 `json:"has_tracing_password,omitempty"`
	CodePage          string               `json:"codepage,omitempty"`
	LastModified      string               `json:"last_modified,omitempty"`
	ProjectSize       string               `json:"project_size,omitempty"`
	GroupAddressStyle string               `json:"group_address_style,omitempty"`
	BCUKey            string               `json:"bcu_key,omitempty"`
	Tags              []ProjectTag         `json:"tags,omitempty"`
	History           []ProjectHistoryItem `json:"history,omitempty"`
	Attachments       []ProjectAttachment  `json:"attachments,omitempty"`
}

// ProjectTag is a coloured tag defined on the project.
type ProjectTag struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

// ProjectHistoryItem is one entry of the project history.
type ProjectHistoryItem struct {
	Date   string `json:"date,omitempty"`
	User   string `json:"user,omitempty"`
	Text   string `json:"text,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// ProjectAttachment is a user file stored with the project.
type ProjectAttachment struct {
	Filename string `json:"filename"`
	Comment  string `json:"comment,omitempty"`
}
