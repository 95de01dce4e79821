package pipeline

import (
	"archive/zip"
	"bytes"
	"testing"

	yzip "github.com/yeka/zip"

	"github.com/nerrad567/knxgraph-core/internal/commissioning/etsimport"
)

const projectXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/21">
  <Project Id="P-0101">
    <ProjectInformation Name="Pipeline House" GroupAddressStyle="TwoLevel" />
  </Project>
</KNX>`

const dataXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/21">
  <Project Id="P-0101">
    <Installations>
      <Installation Name="">
        <Topology>
          <Area Id="P-0101-0_A-1" Address="1" Name="Building">
            <Line Id="P-0101-0_L-1" Address="1" Name="Main line">
              <DeviceInstance Id="P-0101-0_DI-1" Name="Actuator" Address="5" />
            </Line>
          </Area>
        </Topology>
        <GroupAddresses>
          <GroupRanges>
            <GroupRange Id="P-0101-0_GR-1" Name="Lighting">
              <GroupAddress Id="P-0101-0_GA-1" Address="2305" Name="Hall light" DatapointType="DPST-1-1" />
            </GroupRange>
          </GroupRanges>
        </GroupAddresses>
      </Installation>
    </Installations>
  </Project>
</KNX>`

type entry struct {
	name string
	body string
}

func projectFiles() []entry {
	return []entry{
		{name: "P-0101/project.xml", body: projectXML},
		{name: "P-0101/0.xml", body: dataXML},
	}
}

func buildArchive(t *testing.T, entries ...entry) []byte {
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

func buildEncryptedArchive(t *testing.T, password string, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := yzip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Encrypt(e.name, etsimport.DerivePassword(password), yzip.AES256Encryption)
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
