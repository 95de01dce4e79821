package etsimport

import (
	"archive/zip"
	"bytes"
	"testing"

	yzip "github.com/yeka/zip"
)

// zipEntry is one file of an in-memory test archive.
type zipEntry struct {
	name string
	body string
}

// buildArchive writes entries, in order, to an unencrypted ZIP.
func buildArchive(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("creating %s: %v", e.name, err)
		}
		if _, err := f.Write([]byte(e.body)); err != nil {
			t.Fatalf("writing %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}

// buildEncryptedArchive writes entries AES-256 encrypted with the ZIP
// password derived from password, as ETS does for protected projects.
func buildEncryptedArchive(t *testing.T, password string, entries ...zipEntry) []byte {
	t.Helper()
	derived := DerivePassword(password)
	var buf bytes.Buffer
	w := yzip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Encrypt(e.name, derived, yzip.AES256Encryption)
		if err != nil {
			t.Fatalf("creating %s: %v", e.name, err)
		}
		if _, err := f.Write([]byte(e.body)); err != nil {
			t.Fatalf("writing %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}

const testAppID = "M-0083_A-0001-10-ABCD"

const testProjectXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/21">
  <Project Id="P-0001">
    <ProjectInformation Name="Test House" Comment="Demo installation" GroupAddressStyle="ThreeLevel" ProjectNumber="42">
      <Tags>
        <Tag Text="Ground floor" Color="#ff0000" />
        <Tag Color="#00ff00" />
      </Tags>
      <HistoryEntries>
        <HistoryEntry Date="2026-01-02T10:00:00" User="installer" Text="Commissioned" />
        <HistoryEntry />
      </HistoryEntries>
    </ProjectInformation>
    <UserFiles>
      <UserFile Filename="wiring.pdf" Comment="Panel layout" />
    </UserFiles>
  </Project>
</KNX>`

const testDataXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/21">
  <Project Id="P-0001">
    <Installations>
      <Installation Name="" BCUKey="4294967295">
        <Topology>
          <Area Id="P-0001-0_A-1" Address="1" Name="Building">
            <Line Id="P-0001-0_L-1" Address="1" Name="Ground floor">
              <Segment Id="P-0001-0_S-1" Number="0" MediumTypeRefId="MT-0" />
              <DeviceInstance Id="P-0001-0_DI-1" Address="10" SerialNumber="0083ABCD" ProductRefId="M-0083_H-1-O0001_P-AKS" Hardware2ProgramRefId="M-0083_H-1-O0001_HP-0001-10-ABCD">
                <ParameterInstanceRefs>
                  <ParameterInstanceRef RefId="M-0083_A-0001-10-ABCD_P-1_R-1" Value="1" />
                </ParameterInstanceRefs>
                <ComObjectInstanceRefs>
                  <ComObjectInstanceRef RefId="O-0_R-1" Links="GA-1 GA-2" />
                </ComObjectInstanceRefs>
              </DeviceInstance>
              <DeviceInstance Id="P-0001-0_DI-2" Name="Wall switch" Address="20" ProductRefId="M-0083_H-2-O0002_P-TAST" Hardware2ProgramRefId="M-0083_H-2-O0002_HP-0002-01-0000">
                <ComObjectInstanceRefs>
                  <ComObjectInstanceRef RefId="O-1_R-1">
                    <Connectors>
                      <Send GroupAddressRefId="P-0001-0_GA-1" />
                    </Connectors>
                  </ComObjectInstanceRef>
                </ComObjectInstanceRefs>
              </DeviceInstance>
            </Line>
          </Area>
          <Area Id="P-0001-0_A-2" Name="No address" />
        </Topology>
        <Locations>
          <Space Id="P-0001-0_BP-1" Type="Building" Name="House">
            <Space Id="P-0001-0_BP-2" Type="Room" Name="Kitchen" Number="K1">
              <DeviceInstanceRef RefId="P-0001-0_DI-1" />
            </Space>
          </Space>
        </Locations>
        <GroupAddresses>
          <GroupRanges>
            <GroupRange Id="P-0001-0_GR-1" Name="Lighting" Comment="All lights">
              <GroupRange Id="P-0001-0_GR-2" Name="Switching">
                <GroupAddress Id="P-0001-0_GA-1" Address="2305" Name="Kitchen light" DatapointType="DPST-1-1" />
                <GroupAddress Id="P-0001-0_GA-2" Address="2306" Name="Kitchen light status" />
                <GroupAddress Id="P-0001-0_GA-3" Name="No address" />
                <GroupAddress Id="P-0001-0_GA-4" Address="not-a-number" Name="Broken" />
              </GroupRange>
            </GroupRange>
          </GroupRanges>
        </GroupAddresses>
      </Installation>
    </Installations>
  </Project>
</KNX>`

const testMasterXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/21">
  <MasterData>
    <Manufacturers>
      <Manufacturer Id="M-0083" Name="MDT technologies" />
    </Manufacturers>
  </MasterData>
</KNX>`

const testHardwareXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/21">
  <ManufacturerData>
    <Manufacturer RefId="M-0083">
      <Hardware>
        <Hardware Id="M-0083_H-1" Name="AKS" IsCoupler="0">
          <Products>
            <Product Id="M-0083_H-1-O0001_P-AKS" Text="Switch actuator 4-fold" OrderNumber="AKS-0416.03" />
          </Products>
          <Hardware2Programs>
            <Hardware2Program Id="M-0083_H-1-O0001_HP-0001-10-ABCD">
              <ApplicationProgramRef RefId="M-0083_A-0001-10-ABCD" />
            </Hardware2Program>
          </Hardware2Programs>
        </Hardware>
      </Hardware>
    </Manufacturer>
  </ManufacturerData>
</KNX>`

const testAppProgramXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/21">
  <ManufacturerData>
    <Manufacturer RefId="M-0083">
      <ApplicationPrograms>
        <ApplicationProgram Id="M-0083_A-0001-10-ABCD" Name="Switch actuator" ApplicationNumber="1" ApplicationVersion="16" ProgramType="ApplicationProgram" MaskVersion="MV-07B0">
          <Static>
            <ParameterTypes>
              <ParameterType Id="M-0083_A-0001-10-ABCD_PT-OnOff" Name="OnOff">
                <TypeRestriction Base="Value" SizeInBit="1">
                  <Enumeration Id="M-0083_A-0001-10-ABCD_PT-OnOff_EN-0" Text="Off" Value="0" />
                  <Enumeration Id="M-0083_A-0001-10-ABCD_PT-OnOff_EN-1" Text="On" Value="1" />
                </TypeRestriction>
              </ParameterType>
            </ParameterTypes>
            <Parameters>
              <Parameter Id="M-0083_A-0001-10-ABCD_P-1" Name="ChannelActive" ParameterType="M-0083_A-0001-10-ABCD_PT-OnOff" Text="Channel active" />
            </Parameters>
            <ParameterRefs>
              <ParameterRef Id="M-0083_A-0001-10-ABCD_P-1_R-1" RefId="M-0083_A-0001-10-ABCD_P-1" />
            </ParameterRefs>
            <ComObjects>
              <ComObject Id="M-0083_A-0001-10-ABCD_O-0" Name="Switch" Text="Channel A" FunctionText="Switch" Number="0" ObjectSize="1 Bit" DatapointType="DPST-1-1" CommunicationFlag="Enabled" ReadFlag="Disabled" WriteFlag="Enabled" TransmitFlag="Disabled" UpdateFlag="Disabled" ReadOnInitFlag="Disabled" />
            </ComObjects>
            <ComObjectRefs>
              <ComObjectRef Id="M-0083_A-0001-10-ABCD_O-0_R-1" RefId="M-0083_A-0001-10-ABCD_O-0" TransmitFlag="Enabled" />
            </ComObjectRefs>
          </Static>
          <Dynamic>
            <Channel Id="M-0083_A-0001-10-ABCD_CH-1" Text="Channel A">
              <ParameterBlock Id="M-0083_A-0001-10-ABCD_PB-1" Text="General">
                <ParameterRefRef RefId="M-0083_A-0001-10-ABCD_P-1_R-1" />
              </ParameterBlock>
            </Channel>
          </Dynamic>
        </ApplicationProgram>
      </ApplicationPrograms>
    </Manufacturer>
  </ManufacturerData>
</KNX>`

// projectEntries are the two core documents under their conventional names.
func projectEntries() []zipEntry {
	return []zipEntry{
		{name: "P-0001/project.xml", body: testProjectXML},
		{name: "P-0001/0.xml", body: testDataXML},
	}
}

// catalogEntries are the manufacturer catalog files referenced by the
// test project.
func catalogEntries() []zipEntry {
	return []zipEntry{
		{name: "knx_master.xml", body: testMasterXML},
		{name: "M-0083/Hardware.xml", body: testHardwareXML},
		{name: "M-0083/" + testAppID + ".xml", body: testAppProgramXML},
	}
}

// testProjectArchive is a complete unencrypted .knxproj.
func testProjectArchive(t *testing.T) []byte {
	t.Helper()
	return buildArchive(t, append(catalogEntries(), projectEntries()...)...)
}
