package etsimport

import "github.com/beevik/etree"

// DefaultProjectName is used when the project document carries no name.
const DefaultProjectName = "KNX Project"

// projectName returns the ProjectInformation Name, or DefaultProjectName.
func projectName(root *etree.Element) string {
	if name := attr(firstDescendant(root, tagProjectInformation), "Name"); name != "" {
		return name
	}
	return DefaultProjectName
}

// extractProjectInfo reads project metadata from the project document.
// The BCU key lives on the Installation in the installation data. It
// returns nil when neither document carries any.
func extractProjectInfo(root, data *etree.Element) *ProjectInfo {
	info := &ProjectInfo{}
	hasAny := false

	if node := firstDescendant(root, tagProjectInformation); node != nil {
		info.Name = attr(node, "Name")
		info.ProjectType = attr(node, "ProjectType")
		info.ProjectNumber = attr(node, "ProjectNumber")
		info.ContractNumber = attr(node, "ContractNumber")
		info.Description = attr(node, "Comment")
		info.CompletionStatus = attr(node, "CompletionStatus")
		info.ArchivedVersion = attr(node, "ArchivedVersion")
		info.HasTracingKey = attr(node, "ProjectTracingPassword") != ""
		info.SecurityMode = attr(node, "Security")
		info.CodePage = firstAttr(node, "CodePage", "Codepage")
		info.LastModified = attr(node, "LastModified")
		info.ProjectSize = attr(node, "ProjectSize")
		info.GroupAddressStyle = attr(node, "GroupAddressStyle")

		hasAny = info.HasTracingKey || firstNonEmpty(
			info.Name, info.ProjectType, info.ProjectNumber, info.ContractNumber,
			info.Description, info.CompletionStatus, info.ArchivedVersion,
			info.SecurityMode, info.CodePage, info.LastModified, info.ProjectSize,
			info.GroupAddressStyle,
		) != ""

		if tags := childElement(node, "Tags"); tags != nil {
			for _, tag := range childElements(tags, "Tag") {
				if text := attr(tag, "Text"); text != "" {
					info.Tags = append(info.Tags, ProjectTag{Text: text, Color: attr(tag, "Color")})
				}
			}
		}

		for _, entry := range descendants(node, "HistoryEntry") {
			item := ProjectHistoryItem{
				Date:   attr(entry, "Date"),
				User:   attr(entry, "User"),
				Text:   attr(entry, "Text"),
				Detail: attr(entry, "Detail"),
			}
			if firstNonEmpty(item.Date, item.User, item.Text, item.Detail) != "" {
				info.History = append(info.History, item)
			}
		}
	}

	if info.GroupAddressStyle == "" {
		info.GroupAddressStyle = attr(firstDescendant(root, "Project"), "GroupAddressStyle")
	}
	info.BCUKey = firstNonEmpty(
		attr(firstDescendant(data, "Installation"), "BCUKey"),
		attr(firstDescendant(root, "Installation"), "BCUKey"),
	)

	for _, file := range descendants(root, "UserFile") {
		if name := attr(file, "Filename"); name != "" {
			info.Attachments = append(info.Attachments, ProjectAttachment{Filename: name, Comment: attr(file, "Comment")})
		}
	}

	if !hasAny && info.GroupAddressStyle == "" && info.BCUKey == "" &&
		len(info.Tags) == 0 && len(info.History) == 0 && len(info.Attachments) == 0 {
		return nil
	}
	return info
}
