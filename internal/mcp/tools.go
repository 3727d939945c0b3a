package mcp

import (
	"context"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/skerrin/studylog/internal/domain/lesson"
)

type listLessonsInput struct {
	Query       string `json:"query,omitempty" jsonschema:"Substring match against title and course"`
	Status      string `json:"status,omitempty" jsonschema:"Filter by status (Todo, Doing, Done, Blocked); omit or 'All' for every status"`
	Tag         string `json:"tag,omitempty" jsonschema:"Only lessons carrying this exact tag"`
	OverdueOnly bool   `json:"overdueOnly,omitempty" jsonschema:"Only lessons whose review is due"`
	HideLocked  bool   `json:"hideLocked,omitempty" jsonschema:"Hide lessons whose unlock time is still in the future"`
	Sort        string `json:"sort,omitempty" jsonschema:"Sort key: updated (default), priority, status, or title"`
}

type listLessonsOutput struct {
	Lessons []lesson.Lesson `json:"lessons"`
}

type addLessonInput struct {
	Title    string   `json:"title" jsonschema:"Lesson title (required)"`
	Course   string   `json:"course,omitempty" jsonschema:"Course or source the lesson belongs to"`
	Status   string   `json:"status,omitempty" jsonschema:"Initial status; defaults to Todo"`
	Priority int      `json:"priority,omitempty" jsonschema:"Priority 1 (lowest) to 5 (highest); defaults to 3"`
	Tags     []string `json:"tags,omitempty" jsonschema:"Free-form tags"`
	Notes    string   `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

type editLessonInput struct {
	ID       string   `json:"id" jsonschema:"Lesson ID (required)"`
	Title    *string  `json:"title,omitempty" jsonschema:"New title"`
	Course   *string  `json:"course,omitempty" jsonschema:"New course"`
	Status   *string  `json:"status,omitempty" jsonschema:"New status (Todo, Doing, Done, Blocked)"`
	Priority *int     `json:"priority,omitempty" jsonschema:"New priority 1-5"`
	Tags     []string `json:"tags,omitempty" jsonschema:"Replacement tag list; omit to keep current tags"`
	Notes    *string  `json:"notes,omitempty" jsonschema:"New notes"`
}

type lessonIDInput struct {
	ID string `json:"id" jsonschema:"Lesson ID (required)"`
}

type lessonOutput struct {
	Lesson *lesson.Lesson `json:"lesson"`
}

type deleteLessonOutput struct {
	Deleted bool `json:"deleted"`
}

type importLessonsInput struct {
	Payload string `json:"payload" jsonschema:"JSON import payload: an array of lesson records, or an object with an 'items' or 'lessons' array"`
}

type importLessonsOutput struct {
	Imported int `json:"imported"`
}

type exportLessonsInput struct{}

type exportLessonsOutput struct {
	JSON string `json:"json"`
}

// registerTools registers the lesson tools on the server.
func registerTools(server *sdkmcp.Server, lessons LessonService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_lessons",
		Description: "List lessons, optionally filtered and sorted",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, input listLessonsInput) (*sdkmcp.CallToolResult, listLessonsOutput, error) {
		ownerID := getOwnerID(ctx)
		if _, err := lessons.Refresh(ctx, ownerID); err != nil {
			return nil, listLessonsOutput{}, err
		}

		filter := lesson.Filter{
			Query:       input.Query,
			Status:      input.Status,
			Tag:         input.Tag,
			OverdueOnly: input.OverdueOnly,
		}
		key := lesson.SortKey(input.Sort)
		if key == "" {
			key = lesson.SortUpdated
		}

		items := lessons.Select(ownerID, filter, !input.HideLocked, key)
		return nil, listLessonsOutput{Lessons: items}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_lesson",
		Description: "Add a new lesson to the tracker",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, input addLessonInput) (*sdkmcp.CallToolResult, lessonOutput, error) {
		create := lesson.CreateRequest{
			Title:    input.Title,
			Status:   lesson.Status(input.Status),
			Priority: input.Priority,
			Tags:     input.Tags,
		}
		if input.Course != "" {
			create.Course = &input.Course
		}
		if input.Notes != "" {
			create.Notes = &input.Notes
		}

		stored, err := lessons.Create(ctx, getOwnerID(ctx), create)
		if err != nil {
			return nil, lessonOutput{}, err
		}
		return nil, lessonOutput{Lesson: stored}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "edit_lesson",
		Description: "Update fields of an existing lesson; omitted fields are unchanged",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, input editLessonInput) (*sdkmcp.CallToolResult, lessonOutput, error) {
		edit := lesson.EditRequest{
			ID:       input.ID,
			Title:    input.Title,
			Course:   input.Course,
			Priority: input.Priority,
			Tags:     input.Tags,
			Notes:    input.Notes,
		}
		if input.Status != nil {
			status := lesson.Status(*input.Status)
			edit.Status = &status
		}

		stored, err := lessons.Edit(ctx, getOwnerID(ctx), edit)
		if err != nil {
			return nil, lessonOutput{}, err
		}
		return nil, lessonOutput{Lesson: stored}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "review_lesson",
		Description: "Record a completed review; advances the review level and schedules the next review",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, input lessonIDInput) (*sdkmcp.CallToolResult, lessonOutput, error) {
		stored, err := lessons.Review(ctx, getOwnerID(ctx), input.ID)
		if err != nil {
			return nil, lessonOutput{}, err
		}
		return nil, lessonOutput{Lesson: stored}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_lesson",
		Description: "Delete a lesson permanently",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, input lessonIDInput) (*sdkmcp.CallToolResult, deleteLessonOutput, error) {
		if err := lessons.Delete(ctx, getOwnerID(ctx), input.ID); err != nil {
			return nil, deleteLessonOutput{}, err
		}
		return nil, deleteLessonOutput{Deleted: true}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "import_lessons",
		Description: "Import lessons from a loosely structured JSON payload",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, input importLessonsInput) (*sdkmcp.CallToolResult, importLessonsOutput, error) {
		count, err := lessons.Import(ctx, getOwnerID(ctx), []byte(input.Payload))
		if err != nil {
			var partial *lesson.PartialImportError
			if errors.As(err, &partial) {
				return nil, importLessonsOutput{Imported: partial.Inserted}, nil
			}
			return nil, importLessonsOutput{}, err
		}
		return nil, importLessonsOutput{Imported: count}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "export_lessons",
		Description: "Export the full lesson collection as indented JSON",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, input exportLessonsInput) (*sdkmcp.CallToolResult, exportLessonsOutput, error) {
		data, err := lessons.Export(ctx, getOwnerID(ctx))
		if err != nil {
			return nil, exportLessonsOutput{}, err
		}
		return nil, exportLessonsOutput{JSON: string(data)}, nil
	})
}
