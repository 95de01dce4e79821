package etsimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modularAppXML = `<KNX>
  <ManufacturerData>
    <Manufacturer RefId="M-0083">
      <ApplicationPrograms>
        <ApplicationProgram Id="M-0083_A-1" Name="Modular">
          <Static>
            <Allocators>
              <Allocator Id="M-0083_A-1_L-1" Name="Objects" Start="10" maxInclusive="99" />
            </Allocators>
          </Static>
          <ModuleDefs>
            <ModuleDef Id="M-0083_A-1_MD-1" Name="Output">
              <Arguments>
                <Argument Id="M-0083_A-1_MD-1_A-1" Name="argChannel" />
                <Argument Id="M-0083_A-1_MD-1_A-2" Name="argObjects" Allocates="5" />
              </Arguments>
              <Static>
                <ComObjects>
                  <ComObject Id="M-0083_A-1_MD-1_O-2-1" Name="Switch {{argChannel}}" Text="Output {{argChannel}}" FunctionText="On/Off" Number="1" BaseNumber="M-0083_A-1_MD-1_A-2" CommunicationFlag="Enabled" WriteFlag="Enabled" />
                </ComObjects>
                <ComObjectRefs>
                  <ComObjectRef Id="M-0083_A-1_MD-1_O-2-1_R-1" RefId="M-0083_A-1_MD-1_O-2-1" />
                </ComObjectRefs>
              </Static>
            </ModuleDef>
          </ModuleDefs>
        </ApplicationProgram>
      </ApplicationPrograms>
    </Manufacturer>
  </ManufacturerData>
</KNX>`

const modularDeviceXML = `<KNX>
  <DeviceInstance Id="P-0001-0_DI-9" Address="9">
    <ModuleInstances>
      <ModuleInstance Id="MD-1_MI-2" RefId="MD-1">
        <Arguments>
          <Argument RefId="MD-1_A-1" Value="B" />
          <Argument RefId="MD-1_A-2" Value="L-1" />
        </Arguments>
      </ModuleInstance>
    </ModuleInstances>
    <ComObjectInstanceRefs>
      <ComObjectInstanceRef RefId="MD-1_MI-2_O-2-1_R-1" Links="GA-5" />
    </ComObjectInstanceRefs>
  </DeviceInstance>
</KNX>`

func TestResolveLinksInModule(t *testing.T) {
	appRoot, err := parseXML("app.xml", []byte(modularAppXML))
	require.NoError(t, err)
	app := parseAppProgram(appRoot, "M-0083_A-1", "")

	devRoot, err := parseXML("0.xml", []byte(modularDeviceXML))
	require.NoError(t, err)
	device := firstDescendant(devRoot, tagDeviceInstance)
	require.NotNil(t, device)

	groups := []GroupAddressInfo{{ID: "P-0001-0_GA-5", Address: "2/0/5", Name: "Output B"}}
	r := &deviceResolver{groups: indexGroupAddresses(groups), diag: newDiagnostics(nil)}

	modules := moduleArguments(device)
	assert.Equal(t, map[string]map[string]string{
		"MD-1_MI-2": {"MD-1_A-1": "B", "MD-1_A-2": "L-1"},
	}, modules)

	links := r.resolveLinks(firstDescendant(device, tagComObjectInstanceRef), app, modules)
	require.Len(t, links, 1)
	link := links[0]

	// Allocator start 10 + 5 objects per instance × (instance 2 − 1) + static 1.
	require.NotNil(t, link.Number)
	assert.Equal(t, uint32(16), *link.Number)
	assert.Equal(t, "[#16] [Output B] On/Off", link.ObjectName)
	assert.Equal(t, "Switch B", link.ObjectNameRaw)
	assert.Equal(t, "2/0/5", link.GroupAddress)
	assert.False(t, link.IsTransmitter)
	assert.True(t, link.IsReceiver)
	require.NotNil(t, link.Flags)
	assert.Equal(t, "C W", link.Flags.String())
}

const subModuleDeviceXML = `<KNX>
  <DeviceInstance Id="P-0001-0_DI-10" Address="10">
    <ModuleInstances>
      <ModuleInstance Id="MD-1_MI-1" RefId="MD-1">
        <Arguments>
          <Argument RefId="MD-1_A-1" Value="B" />
        </Arguments>
        <ModuleInstance Id="MD-1_MI-1_SM-1_MI-1" RefId="MD-1_SM-1">
          <Arguments>
            <Argument RefId="MD-1_SM-1_A-9" Value="unrelated" />
          </Arguments>
        </ModuleInstance>
      </ModuleInstance>
    </ModuleInstances>
    <ComObjectInstanceRefs>
      <ComObjectInstanceRef RefId="MD-1_MI-1_SM-1_MI-1_O-2-1_R-1" Links="GA-5" />
    </ComObjectInstanceRefs>
  </DeviceInstance>
</KNX>`

func TestResolveLinksInheritsSuperModuleArguments(t *testing.T) {
	appRoot, err := parseXML("app.xml", []byte(modularAppXML))
	require.NoError(t, err)
	app := parseAppProgram(appRoot, "M-0083_A-1", "")

	devRoot, err := parseXML("0.xml", []byte(subModuleDeviceXML))
	require.NoError(t, err)
	device := firstDescendant(devRoot, tagDeviceInstance)
	require.NotNil(t, device)

	groups := []GroupAddressInfo{{ID: "P-0001-0_GA-5", Address: "2/0/5"}}
	r := &deviceResolver{groups: indexGroupAddresses(groups), diag: newDiagnostics(nil)}

	modules := moduleArguments(device)
	assert.Equal(t, map[string]map[string]string{
		"MD-1_MI-1":           {"MD-1_A-1": "B"},
		"MD-1_MI-1_SM-1_MI-1": {"MD-1_SM-1_A-9": "unrelated"},
	}, modules)

	links := r.resolveLinks(firstDescendant(device, tagComObjectInstanceRef), app, modules)
	require.Len(t, links, 1)
	assert.Equal(t, "Output B", links[0].ObjectText)
	assert.Equal(t, "Switch B", links[0].ObjectNameRaw)
	assert.Contains(t, links[0].ObjectName, "[Output B]")
	assert.NotContains(t, links[0].ObjectName, "{{")
}

func TestModuleContextArguments(t *testing.T) {
	tests := []struct {
		name   string
		module moduleContext
		want   map[string]string
	}{
		{
			name:   "no super-module",
			module: moduleContext{values: map[string]string{"A-1": "x"}},
			want:   map[string]string{"A-1": "x"},
		},
		{
			name:   "super-module fills gaps",
			module: moduleContext{values: map[string]string{"A-1": "x"}, baseValues: map[string]string{"A-2": "y"}},
			want:   map[string]string{"A-1": "x", "A-2": "y"},
		},
		{
			name:   "own value wins",
			module: moduleContext{values: map[string]string{"A-1": "x"}, baseValues: map[string]string{"A-1": "super"}},
			want:   map[string]string{"A-1": "x"},
		},
		{
			name:   "only super-module",
			module: moduleContext{baseValues: map[string]string{"A-1": "super"}},
			want:   map[string]string{"A-1": "super"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.module.arguments())
		})
	}
}

func TestResolveLinksUnknownGroupAddress(t *testing.T) {
	root, err := parseXML("0.xml", []byte(`<KNX><ComObjectInstanceRef RefId="O-1_R-1" Links="GA-77" /></KNX>`))
	require.NoError(t, err)

	r := &deviceResolver{groups: map[string]*GroupAddressInfo{}, diag: newDiagnostics(nil)}
	links := r.resolveLinks(firstDescendant(root, tagComObjectInstanceRef), nil, nil)
	require.Len(t, links, 1)
	assert.Equal(t, "GA-77", links[0].GroupAddress, "unresolved references keep the raw id")
	assert.Equal(t, "O-1_R-1", links[0].ObjectName)
	assert.Nil(t, links[0].Number)
}

func TestResolveDeviceSkipsMissingID(t *testing.T) {
	root, err := parseXML("0.xml", []byte(`<KNX><Area Address="1"><Line Address="2">
		<DeviceInstance Address="3" />
		<DeviceInstance Id="P-1_DI-2" Address="4" Name="Sensor" />
	</Line></Area></KNX>`))
	require.NoError(t, err)

	diag := newDiagnostics(nil)
	r := &deviceResolver{
		catalog: newCatalog(nil, "", diag),
		groups:  map[string]*GroupAddressInfo{},
		diag:    diag,
	}
	devices := r.resolveAll(root)
	require.Len(t, devices, 1)
	assert.Equal(t, "1.2.4", devices[0].IndividualAddress)
	assert.Equal(t, "Sensor", devices[0].Name)
	assert.Empty(t, devices[0].GroupLinks)
	assert.NotNil(t, devices[0].GroupLinks)

	require.Len(t, diag.warnings, 1)
	assert.Equal(t, WarnMissingAttribute, diag.warnings[0].Code)
}

func TestApplyIPConfig(t *testing.T) {
	root, err := parseXML("0.xml", []byte(`<KNX><DeviceInstance Id="DI-1">
		<IPConfig Assign="Fixed" IPAddress="192.168.1.20" SubnetMask="255.255.255.0" DefaultGateway="192.168.1.1" MACAddress="00:24:6D:01:02:03" />
	</DeviceInstance></KNX>`))
	require.NoError(t, err)

	var dev Device
	applyIPConfig(&dev, firstDescendant(root, tagDeviceInstance))
	assert.Equal(t, "Fixed", dev.IPAssignment)
	assert.Equal(t, "192.168.1.20", dev.IPAddress)
	assert.Equal(t, "255.255.255.0", dev.IPSubnetMask)
	assert.Equal(t, "192.168.1.1", dev.IPDefaultGateway)
	assert.Equal(t, "00:24:6D:01:02:03", dev.MACAddress)
}
