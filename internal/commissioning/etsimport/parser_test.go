package etsimport

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/knxgraph-core/internal/knx"
)

func findDevice(t *testing.T, p *Project, address string) Device {
	t.Helper()
	for _, d := range p.Devices {
		if d.IndividualAddress == address {
			return d
		}
	}
	t.Fatalf("device %s not found", address)
	return Device{}
}

func findGroupAddress(t *testing.T, p *Project, address string) GroupAddressInfo {
	t.Helper()
	for _, ga := range p.GroupAddresses {
		if ga.Address == address {
			return ga
		}
	}
	t.Fatalf("group address %s not found", address)
	return GroupAddressInfo{}
}

func TestParseFullProject(t *testing.T) {
	project, err := Parse(testProjectArchive(t), Options{})
	require.NoError(t, err)

	assert.Equal(t, "Test House", project.ProjectName)
	assert.Equal(t, "three_level", project.GroupAddressStyle)
	assert.False(t, project.ParsedAt.IsZero())

	t.Run("topology", func(t *testing.T) {
		require.Len(t, project.Areas, 1)
		assert.Equal(t, "1", project.Areas[0].Address)
		assert.Equal(t, "Building", project.Areas[0].Name)

		require.Len(t, project.Lines, 1)
		assert.Equal(t, "1", project.Lines[0].Area)
		assert.Equal(t, "1", project.Lines[0].Line)
		assert.Equal(t, "TP", project.Lines[0].MediumType)
	})

	t.Run("group addresses", func(t *testing.T) {
		require.Len(t, project.GroupAddresses, 2)

		light := findGroupAddress(t, project, "1/1/1")
		assert.Equal(t, "Kitchen light", light.Name)
		assert.Equal(t, "1.001", light.DPT)
		assert.Equal(t, "Lighting", light.MainGroupName)
		assert.Equal(t, "All lights", light.MainGroupComment)
		assert.Equal(t, "Switching", light.MiddleGroupName)
		assert.Equal(t, []string{"1.1.10", "1.1.20"}, light.LinkedDevices)

		status := findGroupAddress(t, project, "1/1/2")
		assert.Equal(t, "DPST-1-1", status.DatapointType, "backfilled from the linked object")
		assert.Equal(t, "1.001", status.DPT)
		assert.Equal(t, []string{"1.1.10"}, status.LinkedDevices)
	})

	t.Run("resolved device", func(t *testing.T) {
		dev := findDevice(t, project, "1.1.10")
		assert.Equal(t, "P-0001-0_DI-1", dev.InstanceID)
		assert.Equal(t, "Switch actuator 4-fold", dev.Name, "falls back to product name")
		assert.Equal(t, "MDT technologies", dev.Manufacturer)
		assert.Equal(t, "AKS-0416.03", dev.ProductReference)
		assert.Equal(t, testAppID, dev.AppProgramID)
		assert.Equal(t, "Switch actuator", dev.AppProgramName)
		assert.Equal(t, "16", dev.AppProgramVersion)
		assert.Equal(t, "0083ABCD", dev.SerialNumber)
		assert.False(t, dev.IsCoupler)

		require.Len(t, dev.GroupLinks, 2)
		first, second := dev.GroupLinks[0], dev.GroupLinks[1]

		assert.Equal(t, "1/1/1", first.GroupAddress)
		assert.Equal(t, "1/1/2", second.GroupAddress)
		assert.Equal(t, "[#0] [Channel A] Switch", first.ObjectName)
		assert.Equal(t, "Switch", first.ObjectNameRaw)
		assert.Equal(t, "Channel A", first.ObjectText)
		assert.Equal(t, "Switch", first.ObjectFunctionText)
		assert.Equal(t, "1.001", first.DPT)
		assert.Equal(t, "1 Bit", first.ObjectSize)
		require.NotNil(t, first.Number)
		assert.Equal(t, uint32(0), *first.Number)

		assert.True(t, first.IsTransmitter, "transmit flag set on the reference")
		assert.True(t, first.IsReceiver, "write flag inherited from the template")
		require.NotNil(t, first.Flags)
		assert.Equal(t, "C W T", first.Flags.String())

		assert.True(t, first.ETSSending)
		assert.False(t, first.ETSReceiving)
		assert.False(t, second.ETSSending)
		assert.True(t, second.ETSReceiving)
		assert.Equal(t, "1/1/1", first.ETSSendingAddress)
		assert.Equal(t, "1/1/1", second.ETSSendingAddress)

		require.Len(t, dev.ConfigurationEntries, 1)
		entry := dev.ConfigurationEntries[0]
		assert.Equal(t, "Channel active", entry.Name)
		assert.Equal(t, "On", entry.Value)
		assert.Equal(t, "1", entry.ValueRaw)
		assert.Equal(t, "On", entry.ValueLabel)
		assert.Equal(t, "OnOff", entry.ParameterType)
		assert.Equal(t, "Channel: Channel A / Block: General", entry.Context)
		assert.Equal(t, SourceParameter, entry.Source)
		assert.Equal(t, map[string]string{"Channel active": "On"}, dev.Configuration)
	})

	t.Run("device without catalog data", func(t *testing.T) {
		dev := findDevice(t, project, "1.1.20")
		assert.Equal(t, "Wall switch", dev.Name)
		assert.Empty(t, dev.AppProgramID)

		require.Len(t, dev.GroupLinks, 1)
		link := dev.GroupLinks[0]
		assert.Equal(t, "1/1/1", link.GroupAddress)
		assert.Equal(t, "Kitchen light", link.ObjectName, "falls back to the group address name")
		assert.Nil(t, link.Flags)
		assert.False(t, link.IsTransmitter)
		assert.False(t, link.IsReceiver)
	})

	t.Run("locations", func(t *testing.T) {
		require.Len(t, project.Locations, 1)
		house := project.Locations[0]
		assert.Equal(t, "House", house.Name)
		assert.Equal(t, "Building", house.SpaceType)
		require.Len(t, house.Children, 1)

		kitchen := house.Children[0]
		assert.Equal(t, "Room", kitchen.SpaceType)
		assert.Equal(t, "K1", kitchen.Number)
		require.Len(t, kitchen.Devices, 1)
		assert.Equal(t, BuildingDeviceRef{
			InstanceID: "P-0001-0_DI-1",
			Address:    "1.1.10",
			Name:       "Switch actuator 4-fold",
		}, kitchen.Devices[0])
	})

	t.Run("project info", func(t *testing.T) {
		require.NotNil(t, project.Info)
		assert.Equal(t, "Demo installation", project.Info.Description)
		assert.Equal(t, "42", project.Info.ProjectNumber)
		assert.Equal(t, "4294967295", project.Info.BCUKey)
		assert.Equal(t, []ProjectTag{{Text: "Ground floor", Color: "#ff0000"}}, project.Info.Tags)
		require.Len(t, project.Info.History, 1)
		assert.Equal(t, "installer", project.Info.History[0].User)
		assert.Equal(t, []ProjectAttachment{{Filename: "wiring.pdf", Comment: "Panel layout"}}, project.Info.Attachments)
	})

	t.Run("statistics and warnings", func(t *testing.T) {
		assert.Equal(t, ParseStatistics{
			Areas:          1,
			Lines:          1,
			Devices:        2,
			GroupAddresses: 2,
			GroupLinks:     3,
			Locations:      2,
			Warnings:       3,
		}, project.Statistics)

		codes := make([]string, 0, len(project.Warnings))
		for _, w := range project.Warnings {
			codes = append(codes, w.Code)
		}
		assert.ElementsMatch(t, []string{
			WarnMissingAttribute, // Area without Address
			WarnMissingAttribute, // GroupAddress without Address
			WarnInvalidAttribute, // GroupAddress with non-numeric Address
		}, codes)
	})
}

func TestParseMultiLinkObject(t *testing.T) {
	data := strings.Replace(testDataXML, `Links="GA-1 GA-2"`, `Links="GA-1 GA-2 GA-5"`, 1)
	data = strings.Replace(data,
		`<GroupAddress Id="P-0001-0_GA-3" Name="No address" />`,
		`<GroupAddress Id="P-0001-0_GA-3" Name="No address" />
                <GroupAddress Id="P-0001-0_GA-5" Address="2307" Name="Kitchen light scene" />`, 1)
	require.Contains(t, data, "GA-1 GA-2 GA-5")

	archive := buildArchive(t, append(catalogEntries(),
		zipEntry{name: "P-0001/project.xml", body: testProjectXML},
		zipEntry{name: "P-0001/0.xml", body: data},
	)...)
	project, err := Parse(archive, Options{})
	require.NoError(t, err)

	dev := findDevice(t, project, "1.1.10")
	require.Len(t, dev.GroupLinks, 3)
	want := []string{"1/1/1", "1/1/2", "1/1/3"}
	for i, link := range dev.GroupLinks {
		assert.Equal(t, want[i], link.GroupAddress)
		assert.Equal(t, "1/1/1", link.ETSSendingAddress, "link %d", i)
		assert.Equal(t, i == 0, link.ETSSending, "link %d", i)
		assert.Equal(t, i != 0, link.ETSReceiving, "link %d", i)
	}

	scene := findGroupAddress(t, project, "1/1/3")
	assert.Equal(t, []string{"1.1.10"}, scene.LinkedDevices)
}

func TestParseGroupAddressStyle(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"default three level", Options{}, "1/1/1"},
		{"two level", Options{GroupAddressStyle: knx.StyleTwoLevel}, "1/257"},
		{"free", Options{GroupAddressStyle: knx.StyleFree}, "2305"},
		{"from project", Options{GroupAddressStyle: knx.StyleFree, StyleFromProject: true}, "1/1/1"},
	}

	data := testProjectArchive(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, err := Parse(data, tt.opts)
			require.NoError(t, err)
			ga := findGroupAddress(t, project, tt.want)
			assert.Equal(t, "Kitchen light", ga.Name)

			dev := findDevice(t, project, "1.1.10")
			assert.Equal(t, tt.want, dev.GroupLinks[0].GroupAddress)
		})
	}
}

func TestParseEncryptedProject(t *testing.T) {
	// ETS stores a protected project as a nested archive whose entries are
	// encrypted; the catalog stays in the clear.
	protected := buildEncryptedArchive(t, "secret", projectEntries()...)
	data := buildArchive(t, append(catalogEntries(), zipEntry{name: "P-0001.zip", body: string(protected)})...)

	t.Run("no password", func(t *testing.T) {
		_, err := Parse(data, Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPasswordRequired)
		assert.True(t, IsPasswordError(err))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := Parse(data, Options{Password: "guess"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})

	t.Run("correct password", func(t *testing.T) {
		project, err := Parse(data, Options{Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "Test House", project.ProjectName)
		assert.Len(t, project.Devices, 2)

		dev := findDevice(t, project, "1.1.10")
		assert.Equal(t, testAppID, dev.AppProgramID, "catalog read from the top-level archive")
	})
}

func TestParseNestedUnencryptedProject(t *testing.T) {
	inner := buildArchive(t, append(projectEntries(), catalogEntries()...)...)
	data := buildArchive(t,
		zipEntry{name: "readme.txt", body: "exported"},
		zipEntry{name: "P-0001.zip", body: string(inner)},
	)

	project, err := Parse(data, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Test House", project.ProjectName)

	dev := findDevice(t, project, "1.1.10")
	assert.Equal(t, "MDT technologies", dev.Manufacturer, "catalog read from the nested archive")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty input", nil, ErrCorruptArchive},
		{"not a zip", []byte("plain text"), ErrCorruptArchive},
		{"no documents", buildArchive(t, catalogEntries()...), ErrMissingDocument},
		{
			"malformed project document",
			buildArchive(t,
				zipEntry{name: "P-0001/project.xml", body: "<KNX><ProjectInformation"},
				zipEntry{name: "P-0001/0.xml", body: testDataXML},
			),
			ErrInvalidXML,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestParseWithoutCatalog(t *testing.T) {
	project, err := Parse(buildArchive(t, projectEntries()...), Options{
		Logger: slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)

	dev := findDevice(t, project, "1.1.10")
	assert.Empty(t, dev.Manufacturer)
	assert.Empty(t, dev.AppProgramID)
	assert.Equal(t, "Device 1.1.10", dev.Name)
	require.Len(t, dev.GroupLinks, 2)
	assert.Equal(t, "Kitchen light", dev.GroupLinks[0].ObjectName)
	assert.Equal(t, "R-1", dev.ConfigurationEntries[0].Name)
	assert.Equal(t, "1", dev.ConfigurationEntries[0].Value)

	var missing int
	for _, w := range project.Warnings {
		if w.Code == WarnMissingCatalog {
			missing++
		}
	}
	assert.Equal(t, 2, missing, "knx_master.xml and M-0083/Hardware.xml")
}

func TestProjectNameDefault(t *testing.T) {
	data := buildArchive(t,
		zipEntry{name: "P-0001/project.xml", body: `<KNX><Project><ProjectInformation Name="  " /></Project></KNX>`},
		zipEntry{name: "P-0001/0.xml", body: `<KNX><Project><Installations><Installation><Topology /></Installation></Installations></Project></KNX>`},
	)
	project, err := Parse(data, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultProjectName, project.ProjectName)
	assert.Empty(t, project.Devices)
	assert.NotNil(t, project.Devices)
	assert.Nil(t, project.Info)
}
